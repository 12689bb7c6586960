package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a drive-mirror.yaml configuration file.
// Defaults are applied before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &cfg, nil
}

// ApplyDefaults fills in unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.BackupRootName == "" {
		cfg.BackupRootName = DefaultBackupRootName
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = DefaultTokenFile
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.InitialBackoffMs == 0 {
		cfg.Retry.InitialBackoffMs = DefaultInitialBackoffMs
	}
	if cfg.Retry.MaxBackoffMs == 0 {
		cfg.Retry.MaxBackoffMs = DefaultMaxBackoffMs
	}
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.LocalRoot == "" {
		errs = append(errs, "'local_root' is required — the local directory to mirror")
	}
	if cfg.BackupRootName == "" {
		errs = append(errs, "'backup_root_name' must not be empty")
	}
	if strings.ContainsAny(cfg.BackupRootName, "/\\") {
		errs = append(errs, "'backup_root_name' must be a single folder name, not a path")
	}
	if cfg.TimestampToleranceSeconds != nil && *cfg.TimestampToleranceSeconds < 0 {
		errs = append(errs, "'timestamp_tolerance_seconds' must not be negative")
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, "'concurrency' must be at least 1")
	}
	if cfg.CredentialsFile != "" && cfg.EncryptedCredentialsFile != "" {
		errs = append(errs, "'credentials_file' and 'encrypted_credentials_file' are mutually exclusive — use one or the other")
	}
	if cfg.CredentialsFile == "" && cfg.EncryptedCredentialsFile == "" {
		errs = append(errs, "one of 'credentials_file' or 'encrypted_credentials_file' is required")
	}
	if cfg.Retry.MaxAttempts < 1 {
		errs = append(errs, "'retry.max_attempts' must be at least 1")
	}
	if cfg.Retry.InitialBackoffMs < 0 || cfg.Retry.MaxBackoffMs < 0 {
		errs = append(errs, "retry backoff values must not be negative")
	}
	if cfg.Retry.MaxBackoffMs < cfg.Retry.InitialBackoffMs {
		errs = append(errs, "'retry.max_backoff_ms' must not be smaller than 'retry.initial_backoff_ms'")
	}

	return errs
}
