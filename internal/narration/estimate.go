package narration

import (
	"strings"
	"unicode"
)

// Speaking-time model constants, in seconds.
const (
	secondsPerNativeRune = 0.2
	secondsPerLatinWord  = 0.6
	minSegmentSeconds    = 0.5
)

// Estimate predicts how long speaking text takes at the given rate. Native
// script characters (anything outside Latin) cost 0.2 s each and
// whitespace-delimited Latin words cost 0.6 s each; the total is divided by
// rate and floored at 0.5 s. The estimate seeds segment timing before
// synthesis and stands in for segments whose real clip duration is
// unavailable.
func Estimate(text string, rate float64) float64 {
	if rate <= 0 {
		rate = 1
	}

	nativeRunes := 0
	for _, r := range text {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			nativeRunes++
		}
	}

	latinWords := 0
	for _, token := range strings.Fields(text) {
		if containsLatin(token) {
			latinWords++
		}
	}

	estimate := (float64(nativeRunes)*secondsPerNativeRune + float64(latinWords)*secondsPerLatinWord) / rate
	if estimate < minSegmentSeconds {
		return minSegmentSeconds
	}
	return estimate
}

// containsLatin reports whether the token holds at least one Latin letter or
// ASCII digit. Punctuation attached to a word does not disqualify it.
func containsLatin(token string) bool {
	for _, r := range token {
		if unicode.Is(unicode.Latin, r) || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}
