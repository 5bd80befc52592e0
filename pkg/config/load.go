package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads, expands, defaults and validates the configuration at
// path, then applies AUTOROUTER_* environment overrides.
//
// The loading sequence is:
//  1. Read the YAML file
//  2. Expand ${os.environ/VAR} references
//  3. Unmarshal
//  4. Apply defaults
//  5. Apply environment overrides
//  6. Validate
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envRefPattern matches ${os.environ/VAR} and the shorter ${VAR} form.
var envRefPattern = regexp.MustCompile(`\$\{(?:os\.environ/)?([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces environment references in the raw YAML with the
// variable's value. Unset variables expand to the empty string, so a
// missing secret surfaces as a validation error on the field that
// needed it.
func expandEnv(data []byte) []byte {
	return envRefPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envRefPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// applyEnvOverrides applies AUTOROUTER_SECTION_FIELD environment
// overrides. Environment variables always win over file values.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("AUTOROUTER_SERVER_LISTEN"); val != "" {
		cfg.Server.Listen = val
	}
	if val := os.Getenv("AUTOROUTER_SERVER_MASTER_KEY"); val != "" {
		cfg.Server.MasterKey = val
	}
	if val := os.Getenv("AUTOROUTER_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("AUTOROUTER_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if val := os.Getenv("AUTOROUTER_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("AUTOROUTER_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	if val := os.Getenv("AUTOROUTER_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = &b
		}
	}
	if val := os.Getenv("AUTOROUTER_USAGE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Enabled = &b
		}
	}
	if val := os.Getenv("AUTOROUTER_USAGE_PATH"); val != "" {
		cfg.Usage.Path = val
	}
	if val := os.Getenv("AUTOROUTER_FAIL2BAN_STORE_PATH"); val != "" {
		cfg.Fail2Ban.StorePath = val
	}
}
