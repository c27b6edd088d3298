package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// EventArchive journals stream events to disk as JSON lines. The worker wires
// one as a hub sink so a run's events survive the process; readers use
// ReadEventsFile, typically from another process.
type EventArchive struct {
	path string

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewEventArchive creates a fresh journal at path, truncating any previous
// content. An empty path disables archiving and returns (nil, nil).
func NewEventArchive(path string) (*EventArchive, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	if err := ensureLogDir(trimmed); err != nil {
		return nil, fmt.Errorf("ensure archive dir: %w", err)
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", trimmed, err)
	}
	return &EventArchive{path: trimmed, file: file, enc: json.NewEncoder(file)}, nil
}

// Append writes one event to the journal. Write failures are swallowed;
// logging must not stop because the archive is unavailable.
func (a *EventArchive) Append(evt LogEvent) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enc == nil {
		if err := a.reopen(); err != nil {
			return
		}
	}
	_ = a.enc.Encode(evt)
}

// Close releases the journal file handle. Append after Close reopens it.
func (a *EventArchive) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	var err error
	if a.file != nil {
		err = a.file.Close()
	}
	a.file = nil
	a.enc = nil
	return err
}

// Path returns the on-disk location backing the archive.
func (a *EventArchive) Path() string {
	if a == nil {
		return ""
	}
	return a.path
}

func (a *EventArchive) reopen() error {
	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	a.file = file
	a.enc = json.NewEncoder(file)
	return nil
}

// ReadEventsFile returns events from an archive with sequence numbers greater
// than since, along with the highest sequence observed while reading. limit
// bounds the result (0 means unlimited). A missing file yields no events and
// no error, so callers can poll before the worker has written anything.
func ReadEventsFile(path string, since uint64, limit int) ([]LogEvent, uint64, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, since, nil
	}
	file, err := os.Open(trimmed)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, since, nil
		}
		return nil, since, fmt.Errorf("open archive %s: %w", trimmed, err)
	}
	defer file.Close()

	sizeHint := limit
	if sizeHint <= 0 || sizeHint > 512 {
		sizeHint = 512
	}
	events := make([]LogEvent, 0, sizeHint)
	highest := since

	decoder := json.NewDecoder(file)
	for {
		var evt LogEvent
		if err := decoder.Decode(&evt); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return events, highest, fmt.Errorf("decode archive %s: %w", trimmed, err)
		}
		if evt.Sequence > highest {
			highest = evt.Sequence
		}
		if evt.Sequence <= since {
			continue
		}
		events = append(events, evt)
		if limit > 0 && len(events) >= limit {
			break
		}
	}
	return events, highest, nil
}
