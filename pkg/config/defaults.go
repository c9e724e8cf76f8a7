package config

import "time"

// Default values for configuration fields.
const (
	// Client defaults
	DefaultAppID     = "vellum"
	DefaultUserAgent = "vellum/0.1"

	// Provider endpoint defaults
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultDeepSeekBaseURL = "https://api.deepseek.com"
	DefaultGroqBaseURL     = "https://api.groq.com/openai/v1"
	DefaultGeminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	DefaultOllamaBaseURL   = "http://localhost:11434/api"

	// Provider defaults
	DefaultProviderTimeout = 60 * time.Second

	// Generation defaults
	DefaultGenerationModel       = "gpt-4o-mini"
	DefaultGenerationTemperature = 0.7
	DefaultGenerationMaxTokens   = 1024

	// Routing defaults
	DefaultRoutingProvider = "openai"

	// Retry defaults
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = 500 * time.Millisecond
	DefaultRetryMaxDelay    = 8 * time.Second
	DefaultRetryJitter      = 0.2

	// Transcript defaults
	DefaultTranscriptBackend        = "memory"
	DefaultTranscriptSQLitePath     = "data/transcript.db"
	DefaultTranscriptSQLiteDriver   = "sqlite"
	DefaultTranscriptMaxOpenConns   = 4
	DefaultTranscriptMaxIdleConns   = 2
	DefaultTranscriptWALMode        = true
	DefaultTranscriptBusyTimeout    = 5 * time.Second
	DefaultTranscriptAsyncBuffer    = 256
	DefaultTranscriptWriteTimeout   = 5 * time.Second
	DefaultTranscriptRetentionDays  = 30
	DefaultTranscriptPruneSchedule  = "0 3 * * *"
	DefaultTranscriptMaxEntries     = int64(0)

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "text"
	DefaultMetricsNamespace  = "vellum"
	DefaultMetricsSubsystem  = "client"
	DefaultTracingSampler    = "ratio"
	DefaultTracingRatio      = 1.0
	DefaultTracingService    = "vellum"
	DefaultTracingTimeout    = 10 * time.Second
)

// KnownProviders lists the provider names Vellum ships adapters for, in
// registry order.
var KnownProviders = []string{"openai", "deepseek", "groq", "gemini", "ollama"}

// DefaultBaseURL returns the default endpoint for a known provider name,
// or empty for an unknown one.
func DefaultBaseURL(provider string) string {
	switch provider {
	case "openai":
		return DefaultOpenAIBaseURL
	case "deepseek":
		return DefaultDeepSeekBaseURL
	case "groq":
		return DefaultGroqBaseURL
	case "gemini":
		return DefaultGeminiBaseURL
	case "ollama":
		return DefaultOllamaBaseURL
	}
	return ""
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values and seeds entries
// for the known providers when absent.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Client defaults
	if cfg.Client.AppID == "" {
		cfg.Client.AppID = DefaultAppID
	}
	if cfg.Client.UserAgent == "" {
		cfg.Client.UserAgent = DefaultUserAgent
	}

	// Provider defaults - seed known providers, then fill per-entry gaps
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	for _, name := range KnownProviders {
		if _, exists := cfg.Providers[name]; !exists {
			seeded := ProviderConfig{BaseURL: DefaultBaseURL(name)}
			// DeepSeek's keyless non-commercial mode is the out-of-the-box
			// path when no deepseek section was written at all.
			if name == "deepseek" {
				seeded.AllowKeyless = true
			}
			cfg.Providers[name] = seeded
		}
	}
	for name, provider := range cfg.Providers {
		if provider.BaseURL == "" {
			provider.BaseURL = DefaultBaseURL(name)
		}
		if provider.KeylessBaseURL == "" {
			provider.KeylessBaseURL = provider.BaseURL
		}
		if provider.Timeout == 0 {
			provider.Timeout = DefaultProviderTimeout
		}
		cfg.Providers[name] = provider
	}

	// Generation defaults
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = DefaultGenerationModel
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = DefaultGenerationTemperature
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = DefaultGenerationMaxTokens
	}

	// Routing defaults
	if cfg.Routing.DefaultProvider == "" {
		cfg.Routing.DefaultProvider = DefaultRoutingProvider
	}

	// Retry defaults
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = DefaultRetryBaseDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if cfg.Retry.Jitter == 0 {
		cfg.Retry.Jitter = DefaultRetryJitter
	}

	// Transcript defaults
	if cfg.Transcript.Backend == "" {
		cfg.Transcript.Backend = DefaultTranscriptBackend
	}
	if cfg.Transcript.SQLite.Path == "" {
		cfg.Transcript.SQLite.Path = DefaultTranscriptSQLitePath
	}
	if cfg.Transcript.SQLite.Driver == "" {
		cfg.Transcript.SQLite.Driver = DefaultTranscriptSQLiteDriver
	}
	if cfg.Transcript.SQLite.MaxOpenConns == 0 {
		cfg.Transcript.SQLite.MaxOpenConns = DefaultTranscriptMaxOpenConns
	}
	if cfg.Transcript.SQLite.MaxIdleConns == 0 {
		cfg.Transcript.SQLite.MaxIdleConns = DefaultTranscriptMaxIdleConns
	}
	if !cfg.Transcript.SQLite.WALMode {
		cfg.Transcript.SQLite.WALMode = DefaultTranscriptWALMode
	}
	if cfg.Transcript.SQLite.BusyTimeout == 0 {
		cfg.Transcript.SQLite.BusyTimeout = DefaultTranscriptBusyTimeout
	}
	if cfg.Transcript.Recorder.AsyncBuffer == 0 {
		cfg.Transcript.Recorder.AsyncBuffer = DefaultTranscriptAsyncBuffer
	}
	if cfg.Transcript.Recorder.WriteTimeout == 0 {
		cfg.Transcript.Recorder.WriteTimeout = DefaultTranscriptWriteTimeout
	}
	if cfg.Transcript.Retention.Days == 0 {
		cfg.Transcript.Retention.Days = DefaultTranscriptRetentionDays
	}
	if cfg.Transcript.Retention.PruneSchedule == "" {
		cfg.Transcript.Retention.PruneSchedule = DefaultTranscriptPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if !cfg.Telemetry.Logging.RedactSecrets {
		cfg.Telemetry.Logging.RedactSecrets = true
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if !cfg.Telemetry.Tracing.Insecure {
		cfg.Telemetry.Tracing.Insecure = true
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}

// Default returns a fully-defaulted configuration suitable for use without
// any configuration file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
