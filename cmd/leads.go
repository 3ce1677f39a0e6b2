package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/leadlog"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List logged leads by outreach status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("leads"); err != nil {
			return err
		}
		leads, err := leadlog.FromConfig(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "init lead log")
		}
		defer leads.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		asJSON, _ := cmd.Flags().GetBool("json")

		entries, err := leads.ListByStatus(ctx, model.LeadStatus(status))
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if asJSON {
			return writeJSON(os.Stdout, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}
		formatLeadsList(os.Stdout, entries)
		return nil
	},
}

func formatLeadsList(out io.Writer, entries []model.LogEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tBUSINESS\tCHANNEL\tSTATUS\tCREATED\tSENT\tURL")
	_, _ = fmt.Fprintln(w, "--\t--------\t-------\t------\t-------\t----\t---")

	for _, e := range entries {
		name := truncateName(e.Lead.BusinessName, 30)
		sent := ""
		if e.SentAt != nil {
			sent = e.SentAt.Format("2006-01-02 15:04")
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(e.ID),
			name,
			e.Lead.Channel,
			e.Status,
			e.CreatedAt.Format("2006-01-02 15:04"),
			sent,
			e.LiveURL,
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	leadsCmd.Flags().String("status", string(model.LeadStatusAwaitingSend), `status to list ("awaiting send" or "sent")`)
	leadsCmd.Flags().Bool("json", false, "print entries as JSON")
	rootCmd.AddCommand(leadsCmd)
}

// truncateName shortens s to at most n runes, ending in "..." when cut.
func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
