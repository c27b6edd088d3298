package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so call sites can mix these constructors with
// slog's own.
type Attr = slog.Attr

func String(key string, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Any(key string, value any) Attr { return slog.Any(key, value) }

// Error renders err under the conventional "error" key.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attrs into the variadic any form slog methods take.
func Args(attrs ...Attr) []any {
	return attrsToArgs(attrs)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

// HasAttrKey reports whether attrs contains the key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, attr := range attrs {
		if attr.Key == key {
			return true
		}
	}
	return false
}

// FieldImpact is the standardized key for the user-facing consequence of a
// warning.
const FieldImpact = "impact"

// WarnWithContext logs a warning carrying event_type, error_hint, and impact
// fields so every WARN states cause, consequence, and next step. Missing
// fields get defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = ensureAttr(attrs, FieldEventType, eventType)
	attrs = ensureAttr(attrs, FieldErrorHint, "check logs for details")
	attrs = ensureAttr(attrs, FieldImpact, "operation completed with warnings")
	logger.Warn(msg, attrsToArgs(attrs)...)
}

// ErrorWithContext logs an error carrying event_type and error_hint fields,
// with defaults for any that are missing.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = ensureAttr(attrs, FieldEventType, eventType)
	attrs = ensureAttr(attrs, FieldErrorHint, "check logs for details")
	logger.Error(msg, attrsToArgs(attrs)...)
}

func ensureAttr(attrs []Attr, key, fallback string) []Attr {
	if HasAttrKey(attrs, key) {
		return attrs
	}
	return append(attrs, String(key, fallback))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component attribute, falling back to
// a no-op base when logger is nil.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
