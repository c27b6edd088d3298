package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reelsmith.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\nfour\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "three" || result.Lines[1] != "four" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset == 0 {
		t.Fatal("expected offset to advance past the read lines")
	}

	again, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: result.Offset})
	if err != nil {
		t.Fatalf("tail from offset: %v", err)
	}
	if len(again.Lines) != 0 {
		t.Fatalf("expected no new lines, got %#v", again.Lines)
	}
}

func TestTailFromStartAndMissingFile(t *testing.T) {
	path := writeLog(t, "alpha\nbeta\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "alpha" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}

	missing := filepath.Join(t.TempDir(), "absent.log")
	result, err = logs.Tail(context.Background(), missing, logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result at offset zero, got %#v", result)
	}
}

func TestTailFollowDeliversAppendedLine(t *testing.T) {
	path := writeLog(t, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	initial, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}
	if len(initial.Lines) != 1 {
		t.Fatalf("expected initial line, got %#v", initial.Lines)
	}

	done := make(chan struct{})
	go func(offset int64) {
		defer close(done)
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow tail error: %v", err)
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
	}(initial.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}
