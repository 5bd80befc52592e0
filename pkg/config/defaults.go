package config

import "time"

// Default values for configuration fields.
const (
	DefaultListen          = "127.0.0.1:8080"
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 10 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodySizeMB   = 25

	DefaultCredentialTimeout = 5 * time.Minute

	DefaultSweepSchedule = "@every 1m"

	DefaultUsagePath         = "data/usage.db"
	DefaultUsageQueueSize    = 1000
	DefaultUsageBatchSize    = 64
	DefaultRetentionSchedule = "0 3 * * *"
	DefaultRetentionDays     = 30

	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
	DefaultMetricsPath   = "/metrics"
)

// ApplyDefaults fills in default values for unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySizeMB == 0 {
		cfg.Server.MaxBodySizeMB = DefaultMaxBodySizeMB
	}

	for i := range cfg.Credentials {
		if cfg.Credentials[i].Timeout == 0 {
			cfg.Credentials[i].Timeout = DefaultCredentialTimeout
		}
	}

	if cfg.Fail2Ban.SweepSchedule == "" {
		cfg.Fail2Ban.SweepSchedule = DefaultSweepSchedule
	}

	if cfg.Usage.Path == "" {
		cfg.Usage.Path = DefaultUsagePath
	}
	if cfg.Usage.QueueSize == 0 {
		cfg.Usage.QueueSize = DefaultUsageQueueSize
	}
	if cfg.Usage.BatchSize == 0 {
		cfg.Usage.BatchSize = DefaultUsageBatchSize
	}
	if cfg.Usage.RetentionSchedule == "" {
		cfg.Usage.RetentionSchedule = DefaultRetentionSchedule
	}
	if cfg.Usage.RetentionDays == 0 {
		cfg.Usage.RetentionDays = DefaultRetentionDays
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
