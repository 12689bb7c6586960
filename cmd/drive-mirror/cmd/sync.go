package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Overrides shared by sync and restore.
var (
	flagApply         bool
	flagLocalRoot     string
	flagBackupRoot    string
	flagCompareHashes bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the local tree into the remote backup folder",
	Long: `Walks the local tree, resolves each directory against the remote backup
folder, and creates or updates whatever is missing or changed. Nothing is
ever deleted remotely. Without --apply the run is a simulation: every
intended action is listed and no mutation call is made.`,
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

		report, runErr := eng.Run(ctx)
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

func addOverrideFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagApply, "apply", false, "perform the changes (default is a dry run)")
	cmd.Flags().StringVar(&flagLocalRoot, "local-root", "", "override local_root from config")
	cmd.Flags().StringVar(&flagBackupRoot, "backup-root", "", "override backup_root_name from config")
	cmd.Flags().BoolVar(&flagCompareHashes, "compare-hashes", false, "enable content-hash comparison")
}

func init() {
	addOverrideFlags(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
