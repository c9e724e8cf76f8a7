package routing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrProviderNotFound is returned when a model resolves to a provider that
// has no configuration entry or no adapter. Check with errors.Is().
var ErrProviderNotFound = errors.New("provider not found")

// ProviderNotFoundError is returned when routing selects a provider the
// router cannot serve. This is a configuration error: it is raised
// synchronously, before any network I/O, and is never retried.
type ProviderNotFoundError struct {
	// ProviderName is the provider that could not be served.
	ProviderName string

	// Model is the model identifier that routed there, when known.
	Model string

	// AvailableProviders contains the names the router can serve.
	AvailableProviders []string
}

// Error implements the error interface.
func (e *ProviderNotFoundError) Error() string {
	available := append([]string(nil), e.AvailableProviders...)
	sort.Strings(available)

	if e.Model != "" {
		return fmt.Sprintf("provider %q (for model %q) not found (available providers: %s)",
			e.ProviderName, e.Model, strings.Join(available, ", "))
	}
	return fmt.Sprintf("provider %q not found (available providers: %s)",
		e.ProviderName, strings.Join(available, ", "))
}

// Is implements error matching for errors.Is().
func (e *ProviderNotFoundError) Is(target error) bool {
	return target == ErrProviderNotFound
}
