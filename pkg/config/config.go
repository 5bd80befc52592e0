package config

import "time"

// Config is the root configuration for the gateway.
type Config struct {
	// Server contains the HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// Credentials is the upstream credential pool. At least one entry
	// is required.
	Credentials []CredentialConfig `yaml:"credentials"`

	// Models declares the model catalog exposed by /v1/models. A model
	// not listed here is unknown to the gateway.
	Models []ModelConfig `yaml:"models"`

	// Fail2Ban configures the credential ban policy.
	Fail2Ban Fail2BanConfig `yaml:"fail2ban"`

	// Usage configures the per-request usage log.
	Usage UsageConfig `yaml:"usage"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	// Listen is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	Listen string `yaml:"listen"`

	// MasterKey is the Bearer token clients must present. Supports
	// ${os.environ/VAR} expansion. Required.
	MasterKey string `yaml:"master_key"`

	// ReadTimeout bounds reading the full request including the body.
	// Default: 60s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing the response. Streamed completions
	// can run for minutes, so the default is generous.
	// Default: 10m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the graceful shutdown drain window.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodySizeMB caps the request body size in megabytes.
	// Default: 25
	MaxBodySizeMB int `yaml:"max_body_size_mb"`
}

// CredentialConfig declares one upstream credential.
type CredentialConfig struct {
	// Name uniquely identifies the credential in logs, metrics and the
	// model catalog. Required.
	Name string `yaml:"name"`

	// Type is the provider kind: "openai", "anthropic", "vertex" or
	// "gemini". Required.
	Type string `yaml:"type"`

	// APIKey authenticates openai, anthropic and gemini credentials.
	// Supports ${os.environ/VAR} expansion.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint. Used for
	// OpenAI-compatible servers and proxies.
	BaseURL string `yaml:"base_url"`

	// ProjectID is the GCP project for vertex credentials.
	ProjectID string `yaml:"project_id"`

	// Location is the Vertex region. Default "us-central1"; "global"
	// selects the global endpoint.
	Location string `yaml:"location"`

	// CredentialsFile is a service account JSON file path for vertex
	// credentials.
	CredentialsFile string `yaml:"credentials_file"`

	// CredentialsJSON is inline service account JSON, as an alternative
	// to CredentialsFile. Supports ${os.environ/VAR} expansion.
	CredentialsJSON string `yaml:"credentials_json"`

	// Models restricts the credential to these model IDs. Empty means
	// the credential serves any model routed to its provider.
	Models []string `yaml:"models"`

	// RPM is the requests-per-minute limit. 0 means unlimited.
	RPM int `yaml:"rpm"`

	// TPM is the tokens-per-minute limit. 0 means unlimited.
	TPM int `yaml:"tpm"`

	// Timeout bounds a single upstream request. Default 5m.
	Timeout time.Duration `yaml:"timeout"`
}

// ModelConfig declares one catalog entry.
type ModelConfig struct {
	// ID is the model name clients request. Required, unique.
	ID string `yaml:"id"`

	// Upstream is the provider-side model name when it differs from ID.
	Upstream string `yaml:"upstream"`

	// Credentials restricts which credentials may serve this model.
	// Empty means any credential that lists the model (or none).
	Credentials []string `yaml:"credentials"`

	// RPM limits requests per minute per credential for this model.
	RPM int `yaml:"rpm"`

	// TPM limits tokens per minute per credential for this model.
	TPM int `yaml:"tpm"`
}

// BanRuleConfig overrides the ban policy for one error code.
type BanRuleConfig struct {
	// Code is the error code: an HTTP status ("401", "429"), the "5xx"
	// class, "timeout" or "network".
	Code string `yaml:"code"`

	// MaxAttempts is the consecutive failures before a ban.
	MaxAttempts int `yaml:"max_attempts"`

	// BanDuration is how long the ban lasts. 0 means permanent.
	BanDuration time.Duration `yaml:"ban_duration"`
}

// Fail2BanConfig configures credential banning.
type Fail2BanConfig struct {
	// Rules override the built-in per-code defaults.
	Rules []BanRuleConfig `yaml:"rules"`

	// SweepSchedule is the cron expression for the unban sweep.
	// Default: "@every 1m"
	SweepSchedule string `yaml:"sweep_schedule"`

	// StorePath is the SQLite file persisting ban state across
	// restarts. Empty disables persistence.
	StorePath string `yaml:"store_path"`
}

// UsageConfig configures the usage log.
type UsageConfig struct {
	// Enabled turns the usage log on. Default true.
	Enabled *bool `yaml:"enabled"`

	// Path is the SQLite file for the usage log.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// QueueSize is the async write buffer. Default 1000.
	QueueSize int `yaml:"queue_size"`

	// BatchSize is the write batch size. Default 64.
	BatchSize int `yaml:"batch_size"`

	// RetentionSchedule is the cron expression for pruning.
	// Default: "0 3 * * *"
	RetentionSchedule string `yaml:"retention_schedule"`

	// RetentionDays is how long usage rows are kept. Default 30.
	RetentionDays int `yaml:"retention_days"`
}

// IsEnabled reports whether the usage log is on.
func (c UsageConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is the minimum log level. Default "info".
	Level string `yaml:"level"`

	// Format is "json" or "text". Default "json".
	Format string `yaml:"format"`

	// RedactSecrets masks API keys in log output. Default true.
	RedactSecrets *bool `yaml:"redact_secrets"`
}

// IsRedactEnabled reports whether secret redaction is on.
func (c LoggingConfig) IsRedactEnabled() bool {
	return c.RedactSecrets == nil || *c.RedactSecrets
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on. Default true.
	Enabled *bool `yaml:"enabled"`

	// Path is the metrics route. Default "/metrics".
	Path string `yaml:"path"`
}

// IsEnabled reports whether metrics are on.
func (c MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
