package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Mirror the remote backup folder back into the local tree",
	Long: `Walks the remote backup folder and recreates it locally: missing
directories are created, files that are absent locally or newer remotely
are downloaded. Nothing local is ever deleted. Without --apply the run is
a simulation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine(ctx, cfg)
		if err != nil {
			return err
		}

		report, runErr := eng.Restore(ctx)
		printReport(report, cfg.IsDryRun())
		if runErr != nil {
			return runErr
		}

		if failed := report.Summarize().Failed; failed > 0 {
			return fmt.Errorf("%d action(s) failed", failed)
		}
		return nil
	},
}

func init() {
	addOverrideFlags(restoreCmd)
	rootCmd.AddCommand(restoreCmd)
}
