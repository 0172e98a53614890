package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lmittmann/tint"
)

// sensitiveKeys contains attribute keys whose values are always masked.
// The renderers log request metadata, so HTTP credentials are covered.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"api_key":             true,
	"password":            true,
	"token":               true,
	"session":             true,
	"session_id":          true,
}

// sensitivePatterns contains value patterns that are masked regardless of key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Bearer and basic credentials
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
}

// markupKeys are attributes carrying raw page markup.
var markupKeys = map[string]bool{
	"markup": true,
	"html":   true,
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// DefaultMaxMarkup is the number of runes of markup kept in a log attribute.
const DefaultMaxMarkup = 2000

// truncatedSuffix is appended to shortened markup.
const truncatedSuffix = "…[truncated]"

// SecureHandler wraps an slog.Handler. It masks credentials and shortens
// block markup before passing records to the underlying handler.
type SecureHandler struct {
	handler   slog.Handler
	maxMarkup int
}

// NewSecureHandler creates a SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used. A maxMarkup of zero
// or less selects DefaultMaxMarkup.
func NewSecureHandler(handler slog.Handler, maxMarkup int) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxMarkup <= 0 {
		maxMarkup = DefaultMaxMarkup
	}
	return &SecureHandler{handler: handler, maxMarkup: maxMarkup}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given (sanitized) attributes.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized), maxMarkup: h.maxMarkup}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name), maxMarkup: h.maxMarkup}
}

func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = h.sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] {
		return slog.String(a.Key, MaskValue)
	}
	if a.Value.Kind() != slog.KindString {
		return a
	}

	value := a.Value.String()
	if isSensitiveValue(value) {
		return slog.String(a.Key, MaskValue)
	}
	if markupKeys[key] {
		return slog.String(a.Key, truncate(value, h.maxMarkup))
	}
	return a
}

func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// truncate shortens s to at most n runes plus a marker.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + truncatedSuffix
}

// Options configures NewLogger.
type Options struct {
	// Verbose lowers the level to Debug. The default level is Info.
	Verbose bool

	// JSON selects JSON output instead of the colored console format.
	JSON bool

	// NoColor disables ANSI colors in console output.
	NoColor bool

	// MaxMarkup bounds markup attributes; see NewSecureHandler.
	MaxMarkup int
}

// NewLogger creates a logger writing to w with sanitization.
// Console output uses tint; JSON output uses slog.JSONHandler.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		})
	}
	return slog.New(NewSecureHandler(handler, opts.MaxMarkup))
}
