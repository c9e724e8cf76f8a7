// Package config provides configuration management for Vellum.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
//  3. From defaults plus environment variables, without a file:
//     cfg, err := config.LoadFromEnv()
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention VELLUM_SECTION_FIELD.
// For example:
//
//   - VELLUM_GENERATION_MODEL overrides generation.model
//   - VELLUM_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//   - VELLUM_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// The conventional per-provider key variables (OPENAI_API_KEY,
// DEEPSEEK_API_KEY, GROQ_API_KEY, GEMINI_API_KEY) are honored as a fallback
// when no Vellum-specific key variable is set.
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher watches a configuration file and maintains the current snapshot:
//
//	w, err := config.NewWatcher("config.yaml", logger, nil)
//	go w.Watch(ctx)
//	...
//	cfg := w.Current() // read-only snapshot
//
// Completion calls capture a snapshot at their start, so a settings edit made
// while a call is in flight is observed by the next call, never mid-call. A
// reload that fails validation keeps the previous snapshot.
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	providers:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//	  deepseek:
//	    allow_keyless: true
//
//	generation:
//	  model: "gpt-4o-mini"
//	  temperature: 0.7
//
//	transcript:
//	  enabled: true
//	  backend: "sqlite"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "text"
//
// The known providers (openai, deepseek, groq, gemini, ollama) are seeded
// with their default endpoints even when the file omits them, so the minimal
// configuration is an empty file plus a key in the environment.
package config
