package config

import (
	"fmt"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "retry.max_attempts").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateGeneration(&cfg.Generation)...)
	errs = append(errs, validateRouting(cfg)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateTranscript(&cfg.Transcript)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	for name, provider := range providers {
		prefix := fmt.Sprintf("providers.%s", name)

		if provider.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required",
			})
		} else if _, err := url.Parse(provider.BaseURL); err != nil {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: fmt.Sprintf("invalid URL format: %v", err),
			})
		}

		// API keys may legitimately be empty: keyless mode, local providers,
		// or keys injected via environment variables at a later stage.
		// Missing required keys surface at credential resolution instead.

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
	}

	return errs
}

// validateGeneration validates generation defaults.
func validateGeneration(cfg *GenerationConfig) []FieldError {
	var errs []FieldError

	if cfg.Model == "" {
		errs = append(errs, FieldError{
			Field:   "generation.model",
			Message: "default model is required",
		})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{
			Field:   "generation.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}
	if cfg.MaxTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "generation.max_tokens",
			Message: "max tokens must be non-negative",
		})
	}
	if cfg.TopP < 0 || cfg.TopP > 1 {
		errs = append(errs, FieldError{
			Field:   "generation.top_p",
			Message: "top_p must be between 0 and 1",
		})
	}

	return errs
}

// validateRouting validates routing configuration against the configured
// providers.
func validateRouting(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.Routing.DefaultProvider == "" {
		errs = append(errs, FieldError{
			Field:   "routing.default_provider",
			Message: "default provider is required",
		})
	} else if _, ok := cfg.Providers[cfg.Routing.DefaultProvider]; !ok {
		errs = append(errs, FieldError{
			Field:   "routing.default_provider",
			Message: fmt.Sprintf("provider %q is not configured", cfg.Routing.DefaultProvider),
		})
	}

	for model, provider := range cfg.Routing.ModelOverrides {
		if _, ok := cfg.Providers[provider]; !ok {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routing.model_overrides.%s", model),
				Message: fmt.Sprintf("provider %q is not configured", provider),
			})
		}
	}

	return errs
}

// validateRetry validates retry configuration.
func validateRetry(cfg *RetryConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "retry.max_attempts",
			Message: "max attempts must be at least 1",
		})
	}
	if cfg.BaseDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "retry.base_delay",
			Message: "base delay must be non-negative",
		})
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		errs = append(errs, FieldError{
			Field:   "retry.max_delay",
			Message: "max delay must not be less than base delay",
		})
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		errs = append(errs, FieldError{
			Field:   "retry.jitter",
			Message: "jitter must be between 0 and 1",
		})
	}

	return errs
}

// validateTranscript validates transcript configuration.
func validateTranscript(cfg *TranscriptConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "transcript.backend",
			Message: fmt.Sprintf("unsupported backend %q (options: memory, sqlite)", cfg.Backend),
		})
	}

	switch cfg.SQLite.Driver {
	case "sqlite", "sqlite3":
	default:
		errs = append(errs, FieldError{
			Field:   "transcript.sqlite.driver",
			Message: fmt.Sprintf("unsupported driver %q (options: sqlite, sqlite3)", cfg.SQLite.Driver),
		})
	}

	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "transcript.sqlite.path",
			Message: "path is required for the sqlite backend",
		})
	}
	if cfg.Recorder.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "transcript.recorder.async_buffer",
			Message: "async buffer must be at least 1",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "transcript.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "transcript.retention.max_entries",
			Message: "max entries must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unsupported level %q (options: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unsupported format %q (options: json, text)", cfg.Logging.Format),
		})
	}

	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("unsupported sampler %q (options: always, never, ratio)", cfg.Tracing.Sampler),
		})
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0 and 1",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}
