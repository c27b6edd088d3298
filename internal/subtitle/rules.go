package subtitle

// Rule tables for the default Japanese kinsoku set. Sentence-final and
// comma-like punctuation plus closing brackets and prolonged-sound marks must
// not start a line; opening brackets must not end one.
const (
	defaultLeadingForbidden  = "。、．，！？!?.,」』）】］〉》｝)]}ー〜・"
	defaultTrailingForbidden = "「『（【［〈《｛([{"
	defaultMaxOverflow       = 1.0
)

// Rules carries the line-breaking prohibition tables consulted by Formatter.
// MaxOverflow is the width a line may exceed the budget by while pulling a
// forbidden leading character back onto it.
type Rules struct {
	MaxOverflow float64

	leading  map[rune]struct{}
	trailing map[rune]struct{}
}

// NewRules builds a rule table from the given character sets.
func NewRules(leadingForbidden, trailingForbidden string, maxOverflow float64) Rules {
	if maxOverflow < 0 {
		maxOverflow = 0
	}
	r := Rules{
		MaxOverflow: maxOverflow,
		leading:     make(map[rune]struct{}, len(leadingForbidden)),
		trailing:    make(map[rune]struct{}, len(trailingForbidden)),
	}
	for _, ch := range leadingForbidden {
		r.leading[ch] = struct{}{}
	}
	for _, ch := range trailingForbidden {
		r.trailing[ch] = struct{}{}
	}
	return r
}

// DefaultRules returns the Japanese kinsoku rule set.
func DefaultRules() Rules {
	return NewRules(defaultLeadingForbidden, defaultTrailingForbidden, defaultMaxOverflow)
}

// LeadingForbidden reports whether ch may not start a line.
func (r Rules) LeadingForbidden(ch rune) bool {
	_, ok := r.leading[ch]
	return ok
}

// TrailingForbidden reports whether ch may not end a line.
func (r Rules) TrailingForbidden(ch rune) bool {
	_, ok := r.trailing[ch]
	return ok
}
