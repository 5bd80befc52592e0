package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "server.listen").
	Field string

	// Message is a human-readable error message.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates all validation failures in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the configuration and returns a ValidationError
// collecting every failed rule, or nil when the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateCredentials(cfg.Credentials)...)
	errs = append(errs, validateModels(cfg.Models, cfg.Credentials)...)
	errs = append(errs, validateFail2Ban(&cfg.Fail2Ban)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.Listen == "" {
		errs = append(errs, FieldError{"server.listen", "listen address is required"})
	}
	if cfg.MasterKey == "" {
		errs = append(errs, FieldError{"server.master_key", "master key is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{"server.idle_timeout", "timeout must be positive"})
	}
	if cfg.MaxBodySizeMB < 0 {
		errs = append(errs, FieldError{"server.max_body_size_mb", "must be non-negative"})
	}

	return errs
}

var validCredentialTypes = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"vertex":    true,
	"gemini":    true,
}

func validateCredentials(credentials []CredentialConfig) []FieldError {
	var errs []FieldError

	if len(credentials) == 0 {
		return []FieldError{{"credentials", "at least one credential must be configured"}}
	}

	seen := make(map[string]bool)
	for i, cred := range credentials {
		prefix := fmt.Sprintf("credentials[%d]", i)

		if cred.Name == "" {
			errs = append(errs, FieldError{prefix + ".name", "name is required"})
		} else if seen[cred.Name] {
			errs = append(errs, FieldError{prefix + ".name", fmt.Sprintf("duplicate credential name %q", cred.Name)})
		}
		seen[cred.Name] = true

		if !validCredentialTypes[cred.Type] {
			errs = append(errs, FieldError{prefix + ".type",
				fmt.Sprintf("unknown type %q (want openai, anthropic, vertex or gemini)", cred.Type)})
			continue
		}

		switch cred.Type {
		case "vertex":
			if cred.ProjectID == "" {
				errs = append(errs, FieldError{prefix + ".project_id", "project_id is required for vertex credentials"})
			}
			if cred.CredentialsFile == "" && cred.CredentialsJSON == "" {
				errs = append(errs, FieldError{prefix,
					"one of credentials_file or credentials_json is required for vertex credentials"})
			}
		default:
			if cred.APIKey == "" {
				errs = append(errs, FieldError{prefix + ".api_key",
					fmt.Sprintf("api_key is required for %s credentials", cred.Type)})
			}
		}

		if cred.RPM < 0 {
			errs = append(errs, FieldError{prefix + ".rpm", "must be non-negative"})
		}
		if cred.TPM < 0 {
			errs = append(errs, FieldError{prefix + ".tpm", "must be non-negative"})
		}
	}

	return errs
}

func validateModels(models []ModelConfig, credentials []CredentialConfig) []FieldError {
	var errs []FieldError

	if len(models) == 0 {
		return []FieldError{{"models", "at least one model must be configured"}}
	}

	credNames := make(map[string]bool, len(credentials))
	for _, cred := range credentials {
		credNames[cred.Name] = true
	}

	seen := make(map[string]bool)
	for i, model := range models {
		prefix := fmt.Sprintf("models[%d]", i)

		if model.ID == "" {
			errs = append(errs, FieldError{prefix + ".id", "id is required"})
		} else if seen[model.ID] {
			errs = append(errs, FieldError{prefix + ".id", fmt.Sprintf("duplicate model id %q", model.ID)})
		}
		seen[model.ID] = true

		for _, name := range model.Credentials {
			if !credNames[name] {
				errs = append(errs, FieldError{prefix + ".credentials",
					fmt.Sprintf("unknown credential %q", name)})
			}
		}

		if model.RPM < 0 {
			errs = append(errs, FieldError{prefix + ".rpm", "must be non-negative"})
		}
		if model.TPM < 0 {
			errs = append(errs, FieldError{prefix + ".tpm", "must be non-negative"})
		}
	}

	return errs
}

func validateFail2Ban(cfg *Fail2BanConfig) []FieldError {
	var errs []FieldError

	for i, rule := range cfg.Rules {
		prefix := fmt.Sprintf("fail2ban.rules[%d]", i)
		if rule.Code == "" {
			errs = append(errs, FieldError{prefix + ".code", "code is required"})
		}
		if rule.MaxAttempts < 0 {
			errs = append(errs, FieldError{prefix + ".max_attempts", "must be non-negative"})
		}
		if rule.BanDuration < 0 {
			errs = append(errs, FieldError{prefix + ".ban_duration", "must be non-negative"})
		}
	}

	if cfg.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
			errs = append(errs, FieldError{"fail2ban.sweep_schedule", err.Error()})
		}
	}

	return errs
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	if !cfg.IsEnabled() {
		return nil
	}
	if cfg.Path == "" {
		errs = append(errs, FieldError{"usage.path", "path is required when the usage log is enabled"})
	}
	if cfg.QueueSize < 0 {
		errs = append(errs, FieldError{"usage.queue_size", "must be non-negative"})
	}
	if cfg.BatchSize < 0 {
		errs = append(errs, FieldError{"usage.batch_size", "must be non-negative"})
	}
	if cfg.RetentionSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RetentionSchedule); err != nil {
			errs = append(errs, FieldError{"usage.retention_schedule", err.Error()})
		}
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{"usage.retention_days", "must be non-negative"})
	}

	return errs
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "text": true}
)

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	if cfg.Level != "" && !validLogLevels[strings.ToLower(cfg.Level)] {
		errs = append(errs, FieldError{"logging.level",
			fmt.Sprintf("unknown level %q (want debug, info, warn or error)", cfg.Level)})
	}
	if cfg.Format != "" && !validLogFormats[strings.ToLower(cfg.Format)] {
		errs = append(errs, FieldError{"logging.format",
			fmt.Sprintf("unknown format %q (want json or text)", cfg.Format)})
	}

	return errs
}
