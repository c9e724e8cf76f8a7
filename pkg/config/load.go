package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention VELLUM_SECTION_FIELD (e.g., VELLUM_GENERATION_MODEL).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	// First load from file (this already applies defaults)
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds a configuration from defaults plus environment variable
// overrides only, for use without a configuration file.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// conventionalKeyEnvVars maps provider names to the API key environment
// variables those providers' own tooling conventionally uses. They are
// honored as a fallback when no VELLUM_PROVIDERS_<NAME>_API_KEY is set.
var conventionalKeyEnvVars = map[string]string{
	"openai":   "OPENAI_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
	"groq":     "GROQ_API_KEY",
	"gemini":   "GEMINI_API_KEY",
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format VELLUM_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Client overrides
	if val := os.Getenv("VELLUM_CLIENT_APP_ID"); val != "" {
		cfg.Client.AppID = val
	}
	if val := os.Getenv("VELLUM_CLIENT_USER_AGENT"); val != "" {
		cfg.Client.UserAgent = val
	}
	if val := os.Getenv("VELLUM_CLIENT_SHARED_API_KEY"); val != "" {
		cfg.Client.SharedAPIKey = val
	}

	// Provider overrides
	for _, name := range KnownProviders {
		applyProviderEnvOverrides(cfg, name)
	}

	// Generation overrides
	if val := os.Getenv("VELLUM_GENERATION_MODEL"); val != "" {
		cfg.Generation.Model = val
	}
	if val := os.Getenv("VELLUM_GENERATION_TEMPERATURE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Generation.Temperature = f
		}
	}
	if val := os.Getenv("VELLUM_GENERATION_MAX_TOKENS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Generation.MaxTokens = i
		}
	}
	if val := os.Getenv("VELLUM_GENERATION_TOP_P"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Generation.TopP = f
		}
	}

	// Routing overrides
	if val := os.Getenv("VELLUM_ROUTING_DEFAULT_PROVIDER"); val != "" {
		cfg.Routing.DefaultProvider = val
	}

	// Retry overrides
	if val := os.Getenv("VELLUM_RETRY_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retry.MaxAttempts = i
		}
	}
	if val := os.Getenv("VELLUM_RETRY_BASE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.BaseDelay = d
		}
	}
	if val := os.Getenv("VELLUM_RETRY_MAX_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retry.MaxDelay = d
		}
	}

	// Transcript overrides
	if val := os.Getenv("VELLUM_TRANSCRIPT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Transcript.Enabled = b
		}
	}
	if val := os.Getenv("VELLUM_TRANSCRIPT_BACKEND"); val != "" {
		cfg.Transcript.Backend = val
	}
	if val := os.Getenv("VELLUM_TRANSCRIPT_SQLITE_PATH"); val != "" {
		cfg.Transcript.SQLite.Path = val
	}
	if val := os.Getenv("VELLUM_TRANSCRIPT_SQLITE_DRIVER"); val != "" {
		cfg.Transcript.SQLite.Driver = val
	}
	if val := os.Getenv("VELLUM_TRANSCRIPT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Transcript.Retention.Days = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("VELLUM_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("VELLUM_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("VELLUM_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("VELLUM_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("VELLUM_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("VELLUM_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// applyProviderEnvOverrides applies environment variable overrides for a
// specific provider. Provider environment variables follow the format
// VELLUM_PROVIDERS_<NAME>_<FIELD> where NAME is the uppercase provider name.
// The provider's conventional key variable (e.g. OPENAI_API_KEY) is honored
// when the Vellum-specific one is absent and no key is configured.
func applyProviderEnvOverrides(cfg *Config, providerName string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	provider, exists := cfg.Providers[providerName]
	if !exists {
		provider = ProviderConfig{}
	}

	prefix := fmt.Sprintf("VELLUM_PROVIDERS_%s_", strings.ToUpper(providerName))

	modified := false

	if val := os.Getenv(prefix + "BASE_URL"); val != "" {
		provider.BaseURL = val
		modified = true
	}
	if val := os.Getenv(prefix + "KEYLESS_BASE_URL"); val != "" {
		provider.KeylessBaseURL = val
		modified = true
	}
	if val := os.Getenv(prefix + "API_KEY"); val != "" {
		provider.APIKey = val
		modified = true
	} else if provider.APIKey == "" {
		if conventional := conventionalKeyEnvVars[providerName]; conventional != "" {
			if val := os.Getenv(conventional); val != "" {
				provider.APIKey = val
				modified = true
			}
		}
	}
	if val := os.Getenv(prefix + "COMMERCIAL_USE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			provider.CommercialUse = b
			modified = true
		}
	}
	if val := os.Getenv(prefix + "ALLOW_KEYLESS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			provider.AllowKeyless = b
			modified = true
		}
	}
	if val := os.Getenv(prefix + "TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			provider.Timeout = d
			modified = true
		}
	}

	// Only update the map if we found at least one override
	if modified || exists {
		cfg.Providers[providerName] = provider
	}
}
