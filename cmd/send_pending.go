package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sendPendingCmd = &cobra.Command{
	Use:          "send-pending",
	Short:        "Send outreach for published leads still awaiting send",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cmd.Flags().Changed("pacing") {
			cfg.Outreach.BatchPacingSecs, _ = cmd.Flags().GetInt("pacing")
		}
		if cmd.Flags().Changed("limit") {
			cfg.Outreach.BatchLimit, _ = cmd.Flags().GetInt("limit")
		}

		batch, leads, err := initBatch(ctx, cfg)
		if err != nil {
			return err
		}
		defer leads.Close() //nolint:errcheck

		report, err := batch.SendPending(ctx)
		if err != nil {
			return eris.Wrap(err, "send pending")
		}

		zap.L().Info("send-pending finished",
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped),
		)
		return writeJSON(os.Stdout, report)
	},
}

func init() {
	sendPendingCmd.Flags().Int("pacing", 5, "seconds between sends (overrides outreach.batch_pacing_secs)")
	sendPendingCmd.Flags().Int("limit", 50, "max sends per invocation (overrides outreach.batch_limit)")
	rootCmd.AddCommand(sendPendingCmd)
}
