// Package log builds the application logger on top of log/slog.
//
// SecureHandler wraps any slog.Handler and
//   - masks credentials (Authorization, Cookie and similar keys, bearer
//     tokens, JWTs) that renderers might log with request metadata;
//   - shortens "markup" and "html" attributes, which carry the raw block
//     markup logged on every extraction miss.
//
// NewLogger picks the output format: colored console output through
// github.com/lmittmann/tint, or JSON for log aggregation.
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	slog.SetDefault(logger)
package log
