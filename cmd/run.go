package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
)

var (
	runNiche    string
	runArea     string
	runAutoSend bool
)

var runCmd = &cobra.Command{
	Use:          "run",
	Short:        "Research one lead, publish its page and optionally send outreach",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("auto-send") {
			cfg.Outreach.AutoSend = runAutoSend
		}

		env, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		report, runErr := env.Pipeline.Run(ctx, pipeline.Hint{Niche: runNiche, Area: runArea})

		zap.L().Info("run finished",
			zap.String("state", string(report.State)),
			zap.String("status", report.Status),
			zap.Int("research_attempts", report.ResearchAttempts),
		)

		if err := writeJSON(os.Stdout, report); err != nil {
			return err
		}
		if runErr != nil {
			return eris.New(report.Status)
		}
		return nil
	},
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

func init() {
	runCmd.Flags().StringVar(&runNiche, "niche", "", "restrict research to a trade, e.g. plumbing")
	runCmd.Flags().StringVar(&runArea, "area", "", "restrict research to a city or region")
	runCmd.Flags().BoolVar(&runAutoSend, "auto-send", false, "send outreach after publishing (overrides outreach.auto_send)")
	rootCmd.AddCommand(runCmd)
}
