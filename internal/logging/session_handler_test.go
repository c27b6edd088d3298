package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSessionIDHandlerStampsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "20260825T101500.000Z"))

	logger.Info("queued job")
	if !strings.Contains(buf.String(), `"session_id":"20260825T101500.000Z"`) {
		t.Fatalf("expected session_id stamp, got: %s", buf.String())
	}

	buf.Reset()
	logger.With("job_id", int64(7)).Info("claimed")
	output := buf.String()
	if !strings.Contains(output, `"session_id"`) {
		t.Fatalf("expected stamp to survive With, got: %s", output)
	}
	if !strings.Contains(output, `"job_id":7`) {
		t.Fatalf("expected carried attr, got: %s", output)
	}
}

func TestSessionIDHandlerNilBase(t *testing.T) {
	if _, ok := newSessionIDHandler(nil, "run").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when the base handler is nil")
	}
}
