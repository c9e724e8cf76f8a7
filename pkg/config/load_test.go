package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
client:
  app_id: "scribe-editor"

providers:
  openai:
    base_url: "https://api.openai.com/v1"
    api_key: "test-key-123"
    timeout: "30s"
  deepseek:
    allow_keyless: true

generation:
  model: "gpt-4o"
  temperature: 0.4
  max_tokens: 512

retry:
  max_attempts: 5
  base_delay: "250ms"

telemetry:
  logging:
    level: "debug"
    format: "json"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Client.AppID != "scribe-editor" {
		t.Errorf("expected app id %q, got %q", "scribe-editor", cfg.Client.AppID)
	}

	openai, exists := cfg.Providers["openai"]
	if !exists {
		t.Fatal("expected openai provider")
	}
	if openai.APIKey != "test-key-123" {
		t.Errorf("expected API key %q, got %q", "test-key-123", openai.APIKey)
	}
	if openai.Timeout != 30*time.Second {
		t.Errorf("expected timeout %v, got %v", 30*time.Second, openai.Timeout)
	}

	deepseek, exists := cfg.Providers["deepseek"]
	if !exists {
		t.Fatal("expected deepseek provider")
	}
	if !deepseek.AllowKeyless {
		t.Error("expected deepseek allow_keyless to be true")
	}
	if deepseek.BaseURL != DefaultDeepSeekBaseURL {
		t.Errorf("expected defaulted base URL %q, got %q", DefaultDeepSeekBaseURL, deepseek.BaseURL)
	}

	if cfg.Generation.Model != "gpt-4o" {
		t.Errorf("expected model %q, got %q", "gpt-4o", cfg.Generation.Model)
	}
	if cfg.Generation.Temperature != 0.4 {
		t.Errorf("expected temperature 0.4, got %v", cfg.Generation.Temperature)
	}

	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("expected max attempts 5, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseDelay != 250*time.Millisecond {
		t.Errorf("expected base delay %v, got %v", 250*time.Millisecond, cfg.Retry.BaseDelay)
	}

	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
	if !strings.Contains(err.Error(), "no such file or directory") {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	malformedContent := `
generation:
  model: "gpt-4o"
  invalid yaml here: [
`

	if err := os.WriteFile(configPath, []byte(malformedContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Out-of-range values survive defaulting and must fail validation.
	invalidContent := `
generation:
  temperature: 3.5

retry:
  jitter: 2.0

transcript:
  backend: "redis"
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "generation.temperature") {
		t.Errorf("expected temperature error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "retry.jitter") {
		t.Errorf("expected jitter error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "transcript.backend") {
		t.Errorf("expected backend error, got: %v", err)
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Keep ambient keys from leaking into the defaulted config.
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("empty file should produce a defaulted config: %v", err)
	}

	for _, name := range KnownProviders {
		if _, ok := cfg.Providers[name]; !ok {
			t.Errorf("expected provider %q to be seeded", name)
		}
	}
	if cfg.Generation.Model != DefaultGenerationModel {
		t.Errorf("expected default model %q, got %q", DefaultGenerationModel, cfg.Generation.Model)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
generation:
  model: "gpt-4o-mini"

providers:
  openai:
    api_key: "file-key"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("VELLUM_GENERATION_MODEL", "deepseek-chat")
	t.Setenv("VELLUM_PROVIDERS_OPENAI_API_KEY", "env-key")
	t.Setenv("VELLUM_RETRY_MAX_ATTEMPTS", "7")
	t.Setenv("VELLUM_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Generation.Model != "deepseek-chat" {
		t.Errorf("expected env override model %q, got %q", "deepseek-chat", cfg.Generation.Model)
	}
	if cfg.Providers["openai"].APIKey != "env-key" {
		t.Errorf("expected env override key %q, got %q", "env-key", cfg.Providers["openai"].APIKey)
	}
	if cfg.Retry.MaxAttempts != 7 {
		t.Errorf("expected max attempts 7, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected logging level %q, got %q", "warn", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverrides_ConventionalKeyFallback(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("VELLUM_PROVIDERS_GROQ_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "gsk-conventional")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Providers["groq"].APIKey != "gsk-conventional" {
		t.Errorf("expected conventional GROQ_API_KEY fallback, got %q", cfg.Providers["groq"].APIKey)
	}
}

func TestLoadConfigWithEnvOverrides_VellumKeyWins(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("VELLUM_PROVIDERS_OPENAI_API_KEY", "vellum-key")
	t.Setenv("OPENAI_API_KEY", "conventional-key")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Providers["openai"].APIKey != "vellum-key" {
		t.Errorf("expected Vellum-specific key to win, got %q", cfg.Providers["openai"].APIKey)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VELLUM_GENERATION_MODEL", "groq/llama-3.3-70b")
	t.Setenv("VELLUM_PROVIDERS_OLLAMA_BASE_URL", "http://192.168.1.10:11434/api")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("failed to load config from env: %v", err)
	}

	if cfg.Generation.Model != "groq/llama-3.3-70b" {
		t.Errorf("expected model override, got %q", cfg.Generation.Model)
	}
	if cfg.Providers["ollama"].BaseURL != "http://192.168.1.10:11434/api" {
		t.Errorf("expected ollama base URL override, got %q", cfg.Providers["ollama"].BaseURL)
	}
}

func TestApplyProviderEnvOverrides_Booleans(t *testing.T) {
	t.Setenv("VELLUM_PROVIDERS_DEEPSEEK_COMMERCIAL_USE", "true")
	t.Setenv("VELLUM_PROVIDERS_DEEPSEEK_ALLOW_KEYLESS", "false")

	cfg := Default()
	applyEnvOverrides(cfg)

	deepseek := cfg.Providers["deepseek"]
	if !deepseek.CommercialUse {
		t.Error("expected commercial_use override to true")
	}
	if deepseek.AllowKeyless {
		t.Error("expected allow_keyless override to false")
	}
}
