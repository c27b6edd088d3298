package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeToken converts a string to a lowercase ASCII token safe for use in
// file names and log fields. Letters are lowercased, digits and hyphens and
// underscores pass through, everything else collapses to an underscore.
// Returns "untitled" when nothing survives.
func SanitizeToken(value string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	out := strings.Trim(mapped, "_-")
	if out == "" {
		return "untitled"
	}
	return out
}

// Truncate caps a string at limit runes, marking the cut with an ellipsis.
// Strings at or under the limit return unchanged.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

// OutputBaseName derives a filesystem-safe base name for render outputs from a
// video title. Multibyte titles survive SanitizeFileName unchanged, so the
// result is additionally capped at maxRunes runes to keep paths manageable.
func OutputBaseName(title string, maxRunes int) string {
	base := SanitizeFileName(title)
	if base == "" {
		return "untitled"
	}
	base = strings.Join(strings.Fields(base), "_")
	runes := []rune(base)
	if maxRunes > 0 && len(runes) > maxRunes {
		base = string(runes[:maxRunes])
	}
	base = strings.Trim(base, "._-")
	if base == "" {
		return "untitled"
	}
	return base
}
