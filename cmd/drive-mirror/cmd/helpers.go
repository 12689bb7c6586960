package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/bianoble/drive-mirror/internal/config"
	"github.com/bianoble/drive-mirror/internal/engine"
	"github.com/bianoble/drive-mirror/internal/remote/drive"
	"github.com/bianoble/drive-mirror/internal/vault"
	"github.com/bianoble/drive-mirror/pkg/mirror"
)

// loadConfig reads and validates the config file, then applies any
// command-line overrides shared by sync and restore.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if flagLocalRoot != "" {
		cfg.LocalRoot = flagLocalRoot
	}
	if flagBackupRoot != "" {
		cfg.BackupRootName = flagBackupRoot
	}
	if flagCompareHashes {
		cfg.CompareHashes = true
	}
	if flagApply {
		dryRun := false
		cfg.DryRun = &dryRun
	}
	return cfg, nil
}

// newEngine authenticates against the remote service and wires the
// reconciliation engine. Credentials come from either the plaintext
// client-secret file or the encrypted vault bundle; the decrypted secret
// is zeroed as soon as the authorized session exists.
func newEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, error) {
	secret, err := loadClientSecret(cfg)
	if err != nil {
		return nil, err
	}
	defer vault.Zero(secret)

	authorized, err := drive.Authenticate(ctx, secret, cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}

	client, err := drive.New(ctx, authorized)
	if err != nil {
		return nil, err
	}

	return engine.New(afero.NewOsFs(), client, cfg), nil
}

func loadClientSecret(cfg *config.Config) ([]byte, error) {
	if cfg.CredentialsFile != "" {
		secret, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading credentials %s: %w", cfg.CredentialsFile, err)
		}
		return secret, nil
	}

	bundle, err := os.ReadFile(cfg.EncryptedCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading encrypted credentials %s: %w", cfg.EncryptedCredentialsFile, err)
	}

	password, err := promptPassword("Vault password: ")
	if err != nil {
		return nil, err
	}
	defer vault.Zero(password)

	secret, err := vault.Decrypt(password, bundle)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials: %w", err)
	}
	return secret, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// printReport prints the itemized actions and the end-of-run summary.
func printReport(report *mirror.RunReport, dryRun bool) {
	for _, rec := range report.Records() {
		switch {
		case rec.Outcome.Err != nil:
			errorf("%-13s %s: %s", rec.Action.Kind, rec.Action.Path, rec.Outcome.Err)
		case rec.Action.Kind == mirror.ActionSkip:
			detail("%-13s %s (%s)", rec.Action.Kind, rec.Action.Path, rec.Action.Reason)
		case rec.Outcome.Simulated:
			info("%-13s %s (simulated)", rec.Action.Kind, rec.Action.Path)
		default:
			info("%-13s %s", rec.Action.Kind, rec.Action.Path)
		}
	}

	s := report.Summarize()
	info("")
	if dryRun {
		info("Dry run — no changes were made.")
	}
	info("Run complete: %d created, %d updated, %d unchanged/skipped, %d failed.",
		s.Created, s.Updated, s.Skipped, s.Failed)
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
