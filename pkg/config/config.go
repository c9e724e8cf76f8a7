package config

import "time"

// Config is the root configuration structure for Vellum.
// It contains all configuration sections for the completion client:
// provider endpoints and credentials, generation defaults, routing,
// retry behavior, the request transcript, and telemetry settings.
type Config struct {
	// Client contains application-level identity and shared credentials.
	Client ClientConfig `yaml:"client"`

	// Providers contains configuration for all completion backends.
	// Keys are provider names ("openai", "deepseek", "groq", "gemini", "ollama").
	// Entries for the known providers are created with default endpoints
	// when absent.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Generation contains default generation parameters merged under
	// per-call options (per-call values win).
	Generation GenerationConfig `yaml:"generation"`

	// Routing contains model-to-provider routing configuration.
	Routing RoutingConfig `yaml:"routing"`

	// Retry contains retry and backoff configuration applied to
	// transient provider failures.
	Retry RetryConfig `yaml:"retry"`

	// Transcript contains configuration for the request journal.
	Transcript TranscriptConfig `yaml:"transcript"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ClientConfig contains application-level identity and shared credentials.
type ClientConfig struct {
	// AppID identifies this application to providers that require a
	// client tag (sent as X-DeepSeek-Client in keyless mode).
	// Default: "vellum"
	AppID string `yaml:"app_id"`

	// UserAgent is the User-Agent header sent on outbound requests.
	// Default: "vellum/0.1"
	UserAgent string `yaml:"user_agent"`

	// SharedAPIKey is a fallback key used for any provider without an
	// explicit per-provider key. Optional.
	// This should typically be loaded from an environment variable.
	SharedAPIKey string `yaml:"shared_api_key"`
}

// ProviderConfig contains configuration for a single completion backend.
type ProviderConfig struct {
	// BaseURL is the base URL for the provider's API endpoint.
	// Example: "https://api.openai.com/v1"
	// Defaults depend on the provider name; see defaults.go.
	BaseURL string `yaml:"base_url"`

	// KeylessBaseURL is the endpoint used in keyless non-commercial mode.
	// Some providers route keyless traffic to a separate free-tier host.
	// Default: same as BaseURL.
	KeylessBaseURL string `yaml:"keyless_base_url"`

	// APIKey is the authentication key for the provider.
	// This should typically be loaded from an environment variable.
	// Leave empty for providers used in keyless mode or without auth (ollama).
	APIKey string `yaml:"api_key"`

	// CommercialUse declares that requests to this provider are made for
	// commercial purposes. Commercial use always requires an API key;
	// credential resolution fails before any network call when this is
	// set and no key is configured.
	// Default: false
	CommercialUse bool `yaml:"commercial_use"`

	// AllowKeyless enables the provider's keyless non-commercial mode
	// when it supports one (currently DeepSeek). In keyless mode the
	// Authorization header is omitted and usage-declaration headers are
	// sent instead.
	// Default: false ("true" for a deepseek entry created from defaults)
	AllowKeyless bool `yaml:"allow_keyless"`

	// Timeout is the maximum duration for requests to this provider.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// GenerationConfig contains default generation parameters.
type GenerationConfig struct {
	// Model is the model identifier used when a call does not name one.
	// Default: "gpt-4o-mini"
	Model string `yaml:"model"`

	// Temperature is the default sampling temperature.
	// A zero value selects the default; use per-call options for an
	// explicit zero temperature.
	// Default: 0.7
	Temperature float64 `yaml:"temperature"`

	// MaxTokens is the default completion length limit.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// TopP is the default nucleus-sampling parameter.
	// 0 means unset (the field is omitted from requests).
	// Default: 0
	TopP float64 `yaml:"top_p"`
}

// RoutingConfig contains model-to-provider routing configuration.
type RoutingConfig struct {
	// DefaultProvider handles any model identifier no rule matches.
	// Default: "openai"
	DefaultProvider string `yaml:"default_provider"`

	// ModelOverrides maps exact model identifiers to provider names,
	// taking precedence over the built-in prefix rules.
	// Example: "my-finetune" -> "ollama"
	ModelOverrides map[string]string `yaml:"model_overrides"`
}

// RetryConfig contains retry and backoff configuration.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the backoff delay before the second attempt.
	// Subsequent delays double, up to MaxDelay.
	// Default: 500ms
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the backoff delay.
	// Default: 8s
	MaxDelay time.Duration `yaml:"max_delay"`

	// Jitter is the fraction of random spread applied to each delay.
	// 0.2 means each delay is multiplied by a value in [0.8, 1.2].
	// Default: 0.2
	Jitter float64 `yaml:"jitter"`
}

// TranscriptConfig contains configuration for the request journal.
// The journal records call outcomes (provider, model, status, timing,
// token counts) for diagnostics. Prompt and response text is never stored.
type TranscriptConfig struct {
	// Enabled controls whether the transcript is recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend specifies the storage backend for transcript entries.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/transcript.db"
	Path string `yaml:"path"`

	// Driver selects the SQL driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 2
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains transcript recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 256
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing an entry to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain transcript entries.
	// Entries older than this are eligible for deletion.
	// 0 means keep entries forever (no pruning).
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxEntries is the maximum number of entries to keep.
	// 0 means unlimited.
	// Default: 0
	MaxEntries int64 `yaml:"max_entries"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets enables automatic redaction of API keys and bearer
	// tokens in log output.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "vellum"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "client"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request
	// duration in seconds.
	// Default: [0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "vellum"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
