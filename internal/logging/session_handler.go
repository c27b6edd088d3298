package logging

import (
	"context"
	"log/slog"
)

// FieldSessionID tags every record with the worker run that produced it.
const FieldSessionID = "session_id"

// sessionIDHandler stamps records with a fixed session identifier so log
// files from overlapping runs stay attributable.
type sessionIDHandler struct {
	next slog.Handler
	id   string
}

func newSessionIDHandler(next slog.Handler, sessionID string) slog.Handler {
	if next == nil {
		return NoopHandler{}
	}
	return &sessionIDHandler{next: next, id: sessionID}
}

func (h *sessionIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sessionIDHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldSessionID, h.id))
	return h.next.Handle(ctx, record)
}

func (h *sessionIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sessionIDHandler{next: h.next.WithAttrs(attrs), id: h.id}
}

func (h *sessionIDHandler) WithGroup(name string) slog.Handler {
	return &sessionIDHandler{next: h.next.WithGroup(name), id: h.id}
}
