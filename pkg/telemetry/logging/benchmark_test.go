package logging

import (
	"io"
	"testing"
)

// BenchmarkLogger_Info measures logging cost with redaction off.
func BenchmarkLogger_Info(b *testing.B) {
	logger, err := New(Config{
		Level:  "info",
		Format: "json",
		Writer: io.Discard,
	})
	if err != nil {
		b.Fatalf("failed to create logger: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		logger.Info("request complete", "provider", "openai", "attempt", i)
	}
}

// BenchmarkLogger_Debug_Disabled measures the cost of a filtered-out entry.
func BenchmarkLogger_Debug_Disabled(b *testing.B) {
	logger, err := New(Config{
		Level:  "info",
		Format: "json",
		Writer: io.Discard,
	})
	if err != nil {
		b.Fatalf("failed to create logger: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		logger.Debug("invisible", "attempt", i)
	}
}

// BenchmarkLogger_Redacting measures the overhead of the secret scrubber.
func BenchmarkLogger_Redacting(b *testing.B) {
	logger, err := New(Config{
		Level:         "info",
		Format:        "json",
		RedactSecrets: true,
		Writer:        io.Discard,
	})
	if err != nil {
		b.Fatalf("failed to create logger: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		logger.Info("auth refused",
			"api_key", "sk-abc123def456ghi",
			"detail", "Bearer eyJhbGciOi was rejected upstream",
		)
	}
}

// BenchmarkRedactString measures raw pattern scrubbing throughput.
func BenchmarkRedactString(b *testing.B) {
	r := NewRedactor()
	input := `Get "https://gen.example/v1beta/models/x:streamGenerateContent?alt=sse&key=secret": EOF`

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		r.RedactString(input)
	}
}
