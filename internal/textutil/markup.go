package textutil

import (
	"regexp"
	"strings"
)

var (
	headerMarker   = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	strongEmphasis = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	emphasis       = regexp.MustCompile(`\*([^*]+)\*|_([^_]+)_`)
)

// StripMarkup removes lightweight markup from narration scripts: block header
// markers at line starts and inline emphasis markers. The wrapped text itself
// is preserved so the spoken content is unchanged.
func StripMarkup(text string) string {
	if text == "" {
		return ""
	}
	text = headerMarker.ReplaceAllString(text, "")
	text = strongEmphasis.ReplaceAllString(text, "$1$2")
	text = emphasis.ReplaceAllString(text, "$1$2")
	return text
}

// CollapseBlankLines trims trailing whitespace (including carriage returns)
// per line and squeezes runs of blank lines down to one.
func CollapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
