package config

import "time"

// Config represents the drive-mirror.yaml configuration file.
type Config struct {
	// LocalRoot is the local directory subtree to mirror.
	LocalRoot string `yaml:"local_root"`

	// BackupRootName is the name of the top-level remote folder that holds
	// the mirror. It is resolved (created if absent) once at run start.
	BackupRootName string `yaml:"backup_root_name"`

	// DryRun simulates the run without issuing any mutation call.
	// Defaults to true; mutations require explicit opt-in.
	DryRun *bool `yaml:"dry_run,omitempty"`

	// CompareHashes enables the MD5 comparison step when size and
	// timestamp checks are inconclusive.
	CompareHashes bool `yaml:"compare_hashes,omitempty"`

	// TimestampToleranceSeconds absorbs filesystem/API clock granularity
	// differences when comparing modification times. Defaults to 2.
	TimestampToleranceSeconds *int `yaml:"timestamp_tolerance_seconds,omitempty"`

	// IncludeHidden mirrors dot-prefixed files and directories too.
	IncludeHidden bool `yaml:"include_hidden,omitempty"`

	// Concurrency bounds parallel uploads of sibling files within an
	// already-resolved folder. Defaults to 1 (fully sequential).
	Concurrency int `yaml:"concurrency,omitempty"`

	// CredentialsFile is a plaintext OAuth client-secret JSON. Mutually
	// exclusive with EncryptedCredentialsFile.
	CredentialsFile string `yaml:"credentials_file,omitempty"`

	// EncryptedCredentialsFile is a vault bundle holding the client
	// secret; the password is prompted for at startup.
	EncryptedCredentialsFile string `yaml:"encrypted_credentials_file,omitempty"`

	// TokenFile stores the OAuth token between runs.
	TokenFile string `yaml:"token_file,omitempty"`

	Retry Retry `yaml:"retry,omitempty"`
}

// Retry configures the backoff policy for transient remote errors.
type Retry struct {
	MaxAttempts      int `yaml:"max_attempts,omitempty"`
	InitialBackoffMs int `yaml:"initial_backoff_ms,omitempty"`
	MaxBackoffMs     int `yaml:"max_backoff_ms,omitempty"`
}

// Defaults applied by Load for fields left unset.
const (
	DefaultBackupRootName   = "Drive Mirror Backup"
	DefaultTokenFile        = "token.json"
	DefaultToleranceSeconds = 2
	DefaultMaxAttempts      = 4
	DefaultInitialBackoffMs = 500
	DefaultMaxBackoffMs     = 16000
)

// IsDryRun reports the effective dry-run setting.
func (c *Config) IsDryRun() bool {
	return c.DryRun == nil || *c.DryRun
}

// Tolerance returns the effective timestamp tolerance.
func (c *Config) Tolerance() time.Duration {
	if c.TimestampToleranceSeconds == nil {
		return DefaultToleranceSeconds * time.Second
	}
	return time.Duration(*c.TimestampToleranceSeconds) * time.Second
}
