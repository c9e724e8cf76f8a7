package routing

import (
	"scribe-hq/vellum/pkg/config"
	"scribe-hq/vellum/pkg/providers"
)

// keylessProviders names the backends that accept keyless non-commercial
// requests (usage-declaration headers in place of an API key).
var keylessProviders = map[string]bool{
	"deepseek": true,
}

// keyOptionalProviders names the backends that need no authentication at
// all, typically local runtimes.
var keyOptionalProviders = map[string]bool{
	"ollama": true,
}

// ResolveCredential derives the credential for one call to the named
// provider from the configuration snapshot. It is evaluated fresh on
// every call so mid-session settings edits take effect immediately.
//
// Resolution order:
//  1. Keyless mode, when the provider supports it, allow_keyless is set,
//     and the call is not commercial: empty key, keyless endpoint.
//  2. The provider's own api_key.
//  3. The shared client api_key.
//  4. For providers that require no key (ollama): an unauthenticated
//     credential.
//  5. Otherwise an auth error, raised before any network I/O. Commercial
//     use without a key is always an error, keyless mode included.
func ResolveCredential(cfg *config.Config, provider string) (providers.Credential, error) {
	pc, ok := cfg.Providers[provider]
	if !ok {
		return providers.Credential{}, &ProviderNotFoundError{
			ProviderName:       provider,
			AvailableProviders: configuredProviders(cfg),
		}
	}

	cred := providers.Credential{
		Provider:      provider,
		BaseURL:       pc.BaseURL,
		AppID:         cfg.Client.AppID,
		CommercialUse: pc.CommercialUse,
		Timeout:       pc.Timeout,
	}

	if keylessProviders[provider] && pc.AllowKeyless && !pc.CommercialUse {
		cred.Keyless = true
		if pc.KeylessBaseURL != "" {
			cred.BaseURL = pc.KeylessBaseURL
		}
		return cred, nil
	}

	key := pc.APIKey
	if key == "" {
		key = cfg.Client.SharedAPIKey
	}

	if key == "" {
		if pc.CommercialUse {
			return providers.Credential{}, providers.NewAuthError(provider, "commercial use requires an API key")
		}
		if keyOptionalProviders[provider] {
			return cred, nil
		}
		return providers.Credential{}, providers.NewAuthError(provider, "no API key configured")
	}

	cred.APIKey = key
	return cred, nil
}

// configuredProviders lists the provider names present in the snapshot,
// for error messages.
func configuredProviders(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	return names
}
