package main

import (
	"errors"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/extract"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// extractResult reports what the extractor made of a saved model response.
type extractResult struct {
	Fields    extract.Fields    `json:"fields"`
	Lenient   []string          `json:"lenient_fields,omitempty"`
	Missing   []string          `json:"missing,omitempty"`
	Lead      *model.LeadRecord `json:"lead,omitempty"`
	ErrorKind model.ErrorKind   `json:"error_kind,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func runExtract(raw string) extractResult {
	res := extractResult{Fields: extract.Extract(raw)}
	for _, f := range extract.LeadFields {
		if _, tier := extract.Tag(raw, f.Tag); tier == extract.TierLenient {
			res.Lenient = append(res.Lenient, f.Name)
		}
	}

	lead, err := extract.ParseLead(raw)
	if err != nil {
		res.ErrorKind = model.KindOf(err)
		res.Error = err.Error()
		var e *model.Error
		if errors.As(err, &e) {
			res.Missing = e.Missing
		}
		return res
	}
	res.Lead = &lead
	return res
}

var extractCmd = &cobra.Command{
	Use:   "extract <file|->",
	Short: "Run extraction, validation and the contact gate on a saved model response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return eris.Wrap(err, "read response")
		}
		return writeJSON(cmd.OutOrStdout(), runExtract(string(raw)))
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
