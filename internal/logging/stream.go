package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEvent is a structured log record published to the stream hub. Well-known
// keys are promoted to typed fields; everything else lands in Fields.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	JobID         int64             `json:"job_id,omitempty"`
	Step          string            `json:"step,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	Details       []DetailField     `json:"details,omitempty"`
}

// DetailField is a selected attribute rendered as a label/value pair.
type DetailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// EventSink receives every event published to a hub.
type EventSink interface {
	Append(LogEvent)
}

// StreamHub assigns published events their sequence numbers and fans each
// one out to registered sinks. Replay of past events goes through the
// archive sink's file, not the hub.
type StreamHub struct {
	mu      sync.Mutex
	lastSeq uint64
	sinks   []EventSink
}

// NewStreamHub returns an empty hub.
func NewStreamHub() *StreamHub {
	return &StreamHub{}
}

// AddSink registers a sink for all future events.
func (h *StreamHub) AddSink(sink EventSink) {
	if h == nil || sink == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, sink)
	h.mu.Unlock()
}

// Publish assigns the event a sequence number and forwards it to every sink.
// Sinks run outside the hub lock.
func (h *StreamHub) Publish(evt LogEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.lastSeq++
	evt.Sequence = h.lastSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	sinks := append([]EventSink(nil), h.sinks...)
	h.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(evt)
	}
}

// streamHandler publishes every record to the hub before delegating to the
// wrapped handler. Attrs attached via With are remembered so promoted fields
// like job_id survive into the event.
type streamHandler struct {
	next      slog.Handler
	hub       *StreamHub
	inherited []slog.Attr
}

func newStreamHandler(next slog.Handler, hub *StreamHub) slog.Handler {
	if hub == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, hub: hub}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	h.hub.Publish(eventFromRecord(record, h.inherited))
	return h.next.Handle(ctx, record.Clone())
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.inherited)+len(attrs))
	merged = append(merged, h.inherited...)
	merged = append(merged, attrs...)
	return &streamHandler{next: h.next.WithAttrs(attrs), hub: h.hub, inherited: merged}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	// Attrs attached before the group stay top-level, so promotion keeps
	// working; grouped attrs are not promoted.
	return &streamHandler{next: h.next.WithGroup(name), hub: h.hub, inherited: h.inherited}
}

// eventFromRecord converts a record plus inherited attrs into a LogEvent.
// Call-site attrs override inherited ones and are the only source of Details.
func eventFromRecord(record slog.Record, inherited []slog.Attr) LogEvent {
	event := LogEvent{
		Timestamp: record.Time,
		Level:     strings.ToUpper(record.Level.String()),
		Message:   strings.TrimSpace(record.Message),
	}

	absorb := func(attr slog.Attr) {
		key := strings.TrimSpace(attr.Key)
		switch key {
		case "":
			return
		case FieldJobID:
			event.JobID = attr.Value.Resolve().Int64()
		case FieldStep:
			event.Step = attrString(attr.Value)
		case FieldStage:
			event.Stage = attrString(attr.Value)
		case FieldCorrelationID:
			event.CorrelationID = attrString(attr.Value)
		case FieldComponent:
			event.Component = attrString(attr.Value)
		case FieldSessionID:
			// Constant for the whole run; the archive file name carries it.
		default:
			if event.Fields == nil {
				event.Fields = make(map[string]string)
			}
			event.Fields[key] = attrString(attr.Value)
		}
	}

	for _, attr := range inherited {
		absorb(attr)
	}

	var callSite []kv
	record.Attrs(func(attr slog.Attr) bool {
		absorb(attr)
		if key := strings.TrimSpace(attr.Key); key != "" {
			callSite = append(callSite, kv{key: key, value: attr.Value})
		}
		return true
	})

	if details := selectEventDetails(callSite, eventDetailLimit); len(details) > 0 {
		event.Details = make([]DetailField, 0, len(details))
		for _, detail := range details {
			event.Details = append(event.Details, DetailField{Label: detail.label, Value: detail.value})
		}
	}

	return event
}
