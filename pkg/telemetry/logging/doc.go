// Package logging builds the structured loggers used across the client.
//
// # Overview
//
// The package configures Go's standard log/slog with:
//   - JSON or logfmt-style text output
//   - Automatic secret redaction (API keys, bearer tokens, key-carrying URLs)
//   - Context-carried request fields (request id, provider, model)
//   - Configurable minimum level (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	logger.Info("request complete",
//	    "provider", "openai",
//	    "api_key", "sk-abc123xyz",  // written as sk-a***
//	    "duration_ms", 1234,
//	)
//
// Request-scoped fields ride the context, so deep call sites inherit them
// without replumbing:
//
//	ctx = logging.WithRequestID(ctx, requestID)
//	logger.InfoContext(ctx, "dispatching")  // includes request_id
//
// # Secret Redaction
//
// With RedactSecrets enabled, every message and attribute value is
// scrubbed before encoding:
//
//   - Provider keys: sk-abc123xyz -> sk-***, gsk_... -> gsk_***, AIza... -> AIza***
//   - Authorization values: Bearer eyJhb... -> Bearer ***
//   - Query credentials: ?key=abc123 -> ?key=***
//   - Values under secret-named keys (api_key, token, authorization, ...)
//     are masked down to a four-character prefix
//
// Redaction is a second fence. Call sites still avoid logging whole
// URLs and request bodies; the scrubber catches what slips through,
// including provider error strings that embed the request URL.
package logging
