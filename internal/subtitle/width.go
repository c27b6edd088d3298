package subtitle

import "golang.org/x/text/width"

// RuneWidth returns the display weight of a rune in full-width units. ASCII
// and East Asian narrow/half-width forms weigh 0.5; everything else, including
// the CJK scripts, weighs 1.0.
func RuneWidth(r rune) float64 {
	if r < 0x7f {
		return 0.5
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianNarrow, width.EastAsianHalfwidth:
		return 0.5
	default:
		return 1.0
	}
}

// TextWidth sums the display weights of every rune in s.
func TextWidth(s string) float64 {
	total := 0.0
	for _, r := range s {
		total += RuneWidth(r)
	}
	return total
}
