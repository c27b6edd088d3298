// Package narration lays out a narration timeline for a script: it segments
// text, estimates speaking durations, synthesizes audio through a
// speech.Synthesizer, and spaces the segments with a fixed gap.
package narration

import (
	"strings"

	"reelsmith/internal/textutil"
)

// Sentence terminators close the segment they end.
const terminators = "。！？!?."

// Split strips markup from a script and cuts it into narration segments.
// Segments end at sentence terminators (which stay attached) or newlines,
// are trimmed, and are never empty.
func Split(script string) []string {
	cleaned := textutil.StripMarkup(script)

	var segments []string
	var current strings.Builder
	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			segments = append(segments, text)
		}
		current.Reset()
	}

	for _, r := range cleaned {
		switch {
		case r == '\n':
			flush()
		case strings.ContainsRune(terminators, r):
			current.WriteRune(r)
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return segments
}
