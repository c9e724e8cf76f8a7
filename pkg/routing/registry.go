package routing

import (
	"strings"

	"scribe-hq/vellum/pkg/config"
)

// prefixRule maps a model-identifier pattern to a provider. Rules are
// evaluated in order; the first match wins.
type prefixRule struct {
	// prefix is matched against the start of the model identifier
	prefix string

	// provider is the backend the rule routes to
	provider string

	// strip removes the matched prefix from the model identifier before it
	// is sent to the backend ("ollama/phi3" asks Ollama for "phi3")
	strip bool
}

// prefixRules is the built-in routing table. Namespaced identifiers
// ("groq/...", "ollama/...") carry the provider explicitly and are
// stripped; vendor model families route on their well-known name stems.
var prefixRules = []prefixRule{
	{prefix: "deepseek", provider: "deepseek"},
	{prefix: "gemini", provider: "gemini"},
	{prefix: "groq/", provider: "groq", strip: true},
	{prefix: "ollama/", provider: "ollama", strip: true},
}

// ResolveModel maps a model identifier to the provider that serves it,
// returning the provider name and the model identifier to send on the
// wire (namespace prefixes stripped).
//
// Resolution order: exact model_overrides entry, then the built-in prefix
// rules, then the configured default provider. Unrecognized identifiers
// always resolve somewhere; whether the backend accepts the model is the
// backend's call.
func ResolveModel(cfg *config.RoutingConfig, model string) (provider, wireModel string) {
	if override, ok := cfg.ModelOverrides[model]; ok {
		return override, model
	}

	for _, rule := range prefixRules {
		if strings.HasPrefix(model, rule.prefix) {
			wireModel = model
			if rule.strip {
				wireModel = strings.TrimPrefix(model, rule.prefix)
			}
			return rule.provider, wireModel
		}
	}

	provider = cfg.DefaultProvider
	if provider == "" {
		provider = config.DefaultRoutingProvider
	}
	return provider, model
}
