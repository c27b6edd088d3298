package subtitle

import (
	"fmt"
	"strconv"
	"strings"

	"reelsmith/internal/services"
	"reelsmith/internal/textutil"
)

// Timestamp is a cue time in milliseconds from the start of the video.
type Timestamp int64

// FromSeconds converts a floating-point second count to a Timestamp,
// rounding to the nearest millisecond.
func FromSeconds(seconds float64) Timestamp {
	return Timestamp(seconds*1000 + 0.5)
}

// Seconds returns the timestamp as floating-point seconds.
func (t Timestamp) Seconds() float64 {
	return float64(t) / 1000
}

// String renders the timestamp in SRT form, hh:mm:ss,mmm.
func (t Timestamp) String() string {
	ms := int64(t)
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	seconds := ms / 1000
	ms -= seconds * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, ms)
}

// FormatTimestamp renders a timestamp in SRT form.
func FormatTimestamp(t Timestamp) string {
	return t.String()
}

// ParseTimestamp reads an SRT timestamp. A period before the milliseconds is
// accepted in place of the comma, which some tools emit.
func ParseTimestamp(raw string) (Timestamp, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ".", ",")
	parts := strings.Split(cleaned, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("parse timestamp %q: missing millisecond separator", raw)
	}
	clock := strings.Split(parts[0], ":")
	if len(clock) != 3 {
		return 0, fmt.Errorf("parse timestamp %q: expected hh:mm:ss", raw)
	}
	hours, err := strconv.ParseInt(clock[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	minutes, err := strconv.ParseInt(clock[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	seconds, err := strconv.ParseInt(clock[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	if minutes > 59 || seconds > 59 || millis > 999 {
		return 0, fmt.Errorf("parse timestamp %q: field out of range", raw)
	}
	return Timestamp(hours*3_600_000 + minutes*60_000 + seconds*1000 + millis), nil
}

// Entry is a single subtitle cue.
type Entry struct {
	Index int
	Start Timestamp
	End   Timestamp
	Text  string
}

// Duration returns the cue length in milliseconds.
func (e Entry) Duration() Timestamp {
	if e.End < e.Start {
		return 0
	}
	return e.End - e.Start
}

// Parse reads an SRT document into entries. Blank documents yield no entries.
func Parse(data string) ([]Entry, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(data, "\r\n", "\n"))
	if trimmed == "" {
		return nil, nil
	}

	var entries []Entry
	for _, block := range strings.Split(trimmed, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, services.Wrap(services.ErrValidation, "subtitle", "parse",
				fmt.Sprintf("cue block %q is incomplete", textutil.Truncate(block, 40)), nil)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "subtitle", "parse",
				fmt.Sprintf("cue index %q is not a number", lines[0]), err)
		}
		timing := strings.Split(lines[1], "-->")
		if len(timing) != 2 {
			return nil, services.Wrap(services.ErrValidation, "subtitle", "parse",
				fmt.Sprintf("cue %d has no timing arrow", index), nil)
		}
		start, err := ParseTimestamp(timing[0])
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "subtitle", "parse",
				fmt.Sprintf("cue %d start", index), err)
		}
		end, err := ParseTimestamp(timing[1])
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "subtitle", "parse",
				fmt.Sprintf("cue %d end", index), err)
		}
		entries = append(entries, Entry{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return entries, nil
}

// Marshal renders entries as an SRT document. Marshal(Parse(doc)) reproduces
// doc byte for byte when doc uses LF endings, comma separators, and a single
// trailing newline per cue.
func Marshal(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", e.Index, e.Start, e.End, e.Text)
	}
	return b.String()
}

// Reflow rewraps the text of every entry with the formatter, leaving index
// and timing untouched. Existing line breaks are display artifacts and are
// removed before rewrapping.
func Reflow(entries []Entry, f Formatter) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		flat := strings.ReplaceAll(e.Text, "\n", "")
		e.Text = f.FormatToString(flat)
		out[i] = e
	}
	return out
}
