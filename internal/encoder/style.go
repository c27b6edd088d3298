package encoder

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"reelsmith/internal/recipe"
)

const defaultASSColor = "&HFFFFFF"

// ForceStyle renders a text style as a libass force_style override list for
// the subtitles filter. With the plate enabled the outline becomes an opaque
// box in the plate color; otherwise a conventional stroke is drawn.
func ForceStyle(style recipe.TextStyle) string {
	pairs := make([]string, 0, 7)
	if name := fontFamily(style.FontPath); name != "" {
		pairs = append(pairs, "FontName="+name)
	}
	size := style.Size
	if size <= 0 {
		size = 32
	}
	pairs = append(pairs, fmt.Sprintf("FontSize=%d", int(size+0.5)))
	pairs = append(pairs, "PrimaryColour="+assColor(style.Color))
	if style.PlateEnabled {
		pairs = append(pairs,
			"OutlineColour="+assColor(style.PlateColor),
			"BorderStyle=3",
			"Outline="+formatOutline(max(style.StrokeWidth, 3)))
	} else {
		pairs = append(pairs,
			"OutlineColour="+assColor(style.StrokeColor),
			"BorderStyle=1",
			"Outline="+formatOutline(max(style.StrokeWidth, 0)))
	}
	pairs = append(pairs, fmt.Sprintf("Alignment=%d", alignment(style.Anchor)))
	return strings.Join(pairs, ",")
}

// SubtitleFilter builds the -vf expression that burns a subtitle file into
// the video stream. Colons and backslashes are escaped for the filter
// parser.
func SubtitleFilter(subtitlePath, forceStyle string) string {
	escaped := strings.ReplaceAll(filepath.ToSlash(subtitlePath), ":", `\:`)
	if forceStyle == "" {
		return fmt.Sprintf("subtitles='%s'", escaped)
	}
	return fmt.Sprintf("subtitles='%s':force_style='%s'", escaped, forceStyle)
}

// assColor converts a #RRGGBB or #RRGGBBAA hex color to the libass
// &H[AA]BBGGRR form. libass alpha is inverted: 00 is opaque, FF transparent.
// Unparseable values fall back to opaque white.
func assColor(hex string) string {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	switch len(hex) {
	case 6:
		var r, g, b uint8
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return defaultASSColor
		}
		return fmt.Sprintf("&H%02X%02X%02X", b, g, r)
	case 8:
		var r, g, b, a uint8
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return defaultASSColor
		}
		return fmt.Sprintf("&H%02X%02X%02X%02X", 255-a, b, g, r)
	default:
		return defaultASSColor
	}
}

// alignment maps a text anchor to the libass numpad alignment code for the
// center column.
func alignment(anchor recipe.Anchor) int {
	switch anchor {
	case recipe.AnchorTop:
		return 8
	case recipe.AnchorMiddle:
		return 5
	default:
		return 2
	}
}

// fontFamily guesses a family name from the font file stem. Hyphen and
// underscore separators read as spaces so weight suffixes become style
// names. Empty paths yield no override, leaving the libass default.
func fontFamily(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.ReplaceAll(stem, "-", " ")
	stem = strings.ReplaceAll(stem, "_", " ")
	return strings.TrimSpace(stem)
}

func formatOutline(width float64) string {
	return strconv.FormatFloat(width, 'f', -1, 64)
}
