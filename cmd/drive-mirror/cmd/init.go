package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default drive-mirror.yaml scaffold.
const initTemplate = `# drive-mirror configuration
local_root: /home/you/Documents

# Name of the top-level Drive folder the tree is mirrored into.
# Created on first run if it does not exist.
backup_root_name: Drive Mirror Backup

# Runs are simulated unless this is false (or --apply is passed).
dry_run: true

# Compare MD5 content hashes when size and mtime are inconclusive.
# Slower, but catches edits that preserve size and timestamp.
compare_hashes: false

# Clock-skew tolerance for mtime comparison, in seconds.
timestamp_tolerance_seconds: 2

# Mirror dot-files and dot-directories too.
include_hidden: false

# Parallel uploads within a directory. 1 disables parallelism.
concurrency: 1

# OAuth client secret. Use exactly one of the two:
credentials_file: credentials.json
# encrypted_credentials_file: credentials.json.vault

# Where the OAuth token is cached after the first authorization.
token_file: token.json

# retry:
#   max_attempts: 4
#   initial_backoff_ms: 500
#   max_backoff_ms: 16000
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter drive-mirror.yaml configuration",
	Long: `Creates a drive-mirror.yaml file in the current directory with a commented
template covering every setting.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Set local_root and point credentials_file at your OAuth client secret")
		info("  2. Run 'drive-mirror sync' to preview the actions")
		info("  3. Run 'drive-mirror sync --apply' to perform them")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
