package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEventArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.events")
	arch, err := NewEventArchive(path)
	if err != nil {
		t.Fatalf("NewEventArchive: %v", err)
	}
	stamp := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	for seq := uint64(1); seq <= 3; seq++ {
		arch.Append(LogEvent{Sequence: seq, Timestamp: stamp, Level: "INFO", Message: "event", JobID: 7})
	}
	if err := arch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, highest, err := ReadEventsFile(path, 0, 0)
	if err != nil {
		t.Fatalf("ReadEventsFile: %v", err)
	}
	if len(events) != 3 || highest != 3 {
		t.Fatalf("got %d events (highest %d), want 3 events highest 3", len(events), highest)
	}
	if events[0].JobID != 7 || !events[0].Timestamp.Equal(stamp) {
		t.Fatalf("first event round-trip mismatch: %+v", events[0])
	}

	tail, highest, err := ReadEventsFile(path, 2, 0)
	if err != nil {
		t.Fatalf("ReadEventsFile since 2: %v", err)
	}
	if len(tail) != 1 || tail[0].Sequence != 3 || highest != 3 {
		t.Fatalf("since=2 returned %v (highest %d)", tail, highest)
	}

	limited, highest, err := ReadEventsFile(path, 0, 1)
	if err != nil {
		t.Fatalf("ReadEventsFile limit 1: %v", err)
	}
	if len(limited) != 1 || limited[0].Sequence != 1 || highest != 1 {
		t.Fatalf("limit=1 returned %v (highest %d)", limited, highest)
	}
}

func TestEventArchiveTruncatesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.events")
	if err := os.WriteFile(path, []byte("{\"seq\":99,\"msg\":\"stale\"}\n"), 0o644); err != nil {
		t.Fatalf("seed stale archive: %v", err)
	}

	arch, err := NewEventArchive(path)
	if err != nil {
		t.Fatalf("NewEventArchive: %v", err)
	}
	arch.Append(LogEvent{Sequence: 1, Message: "fresh"})
	if err := arch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, highest, err := ReadEventsFile(path, 0, 0)
	if err != nil {
		t.Fatalf("ReadEventsFile: %v", err)
	}
	if len(events) != 1 || events[0].Message != "fresh" || highest != 1 {
		t.Fatalf("stale content survived: %v (highest %d)", events, highest)
	}
}

func TestEventArchiveDisabledAndMissing(t *testing.T) {
	arch, err := NewEventArchive("   ")
	if err != nil {
		t.Fatalf("blank path: %v", err)
	}
	if arch != nil {
		t.Fatal("blank path should disable archiving")
	}
	arch.Append(LogEvent{Message: "dropped"})
	if arch.Path() != "" {
		t.Fatal("nil archive should report an empty path")
	}
	if err := arch.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}

	events, highest, err := ReadEventsFile(filepath.Join(t.TempDir(), "absent.events"), 5, 0)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(events) != 0 || highest != 5 {
		t.Fatalf("missing file returned %v (highest %d)", events, highest)
	}
}
