package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor scrubs credentials from log output. It targets the secret
// shapes this client actually handles: provider API keys, bearer tokens
// and key-carrying query strings.
type Redactor struct {
	patterns []redactPattern
}

// redactPattern pairs a compiled regex with its replacement.
type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// sensitiveKeys marks attribute names whose values are always secrets.
// Matching is case-insensitive on substrings, so "Authorization" and
// "X-Api-Key" both qualify.
var sensitiveKeys = []string{
	"api_key", "apikey", "api-key",
	"authorization", "token", "secret", "password", "credential",
}

// NewRedactor compiles the built-in secret patterns.
func NewRedactor() *Redactor {
	specs := []struct {
		regex       string
		replacement string
	}{
		// OpenAI and DeepSeek style keys
		{`\bsk-[A-Za-z0-9_-]{6,}`, "sk-***"},

		// Groq keys
		{`\bgsk_[A-Za-z0-9]{6,}`, "gsk_***"},

		// Google API keys
		{`\bAIza[0-9A-Za-z_-]{10,}`, "AIza***"},

		// Authorization header values
		{`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"},

		// Keys riding in query strings
		{`([?&](?:key|api_key|apikey)=)[^&\s"']+`, "${1}***"},
	}

	r := &Redactor{patterns: make([]redactPattern, 0, len(specs))}
	for _, s := range specs {
		r.patterns = append(r.patterns, redactPattern{
			regex:       regexp.MustCompile(s.regex),
			replacement: s.replacement,
		})
	}
	return r
}

// RedactString scrubs secret-shaped substrings from value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr scrubs a single attribute. Values under sensitive key names
// are masked regardless of content; other string values run through the
// pattern set. Groups are scrubbed recursively and error values by their
// message, which can embed a full request URL.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		scrubbed := make([]slog.Attr, len(group))
		for i, ga := range group {
			scrubbed[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(scrubbed...)}

	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, MaskSecret(a.Value.String()))
		}
		return slog.String(a.Key, r.RedactString(a.Value.String()))

	default:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, "***")
		}
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
		return a
	}
}

// isSensitiveKey reports whether an attribute name implies a secret value.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// MaskSecret keeps a short identifying prefix and masks the rest.
// Empty input stays empty so absent credentials remain visibly absent.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "***"
	}
	return value[:4] + "***"
}
