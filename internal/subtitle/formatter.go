package subtitle

// Formatter wraps text to a maximum line width measured in full-width units.
type Formatter struct {
	MaxWidth float64
	Rules    Rules
}

// NewFormatter returns a Formatter with the default kinsoku rules.
func NewFormatter(maxWidth float64) Formatter {
	return Formatter{MaxWidth: maxWidth, Rules: DefaultRules()}
}

// Format splits text into lines no wider than MaxWidth, honouring the
// forbidden leading/trailing character rules. Joining the returned lines
// reproduces text exactly. Empty input yields no lines.
func (f Formatter) Format(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var lines []string
	var line []rune
	lineWidth := 0.0

	for i := 0; i < len(runes); {
		ch := runes[i]
		w := RuneWidth(ch)

		if len(line) == 0 || lineWidth+w <= f.MaxWidth {
			line = append(line, ch)
			lineWidth += w
			i++
			continue
		}

		// ch would overflow the line, so it becomes the candidate first
		// character of the next one. Forbidden leading characters are pulled
		// back instead, within the overflow allowance.
		for i < len(runes) {
			ch = runes[i]
			w = RuneWidth(ch)
			if !f.Rules.LeadingForbidden(ch) || lineWidth+w > f.MaxWidth+f.Rules.MaxOverflow {
				break
			}
			line = append(line, ch)
			lineWidth += w
			i++
		}

		// Opening brackets cannot close a line; carry them to the next one.
		// A line reduced to a single forbidden character is emitted as-is so
		// pathological input cannot loop.
		var carry []rune
		for len(line) > 1 {
			last := line[len(line)-1]
			if !f.Rules.TrailingForbidden(last) {
				break
			}
			line = line[:len(line)-1]
			carry = append(carry, last)
		}
		for l, r := 0, len(carry)-1; l < r; l, r = l+1, r-1 {
			carry[l], carry[r] = carry[r], carry[l]
		}

		if len(line) > 0 {
			lines = append(lines, string(line))
		}
		line = append([]rune(nil), carry...)
		lineWidth = 0
		for _, c := range line {
			lineWidth += RuneWidth(c)
		}
	}

	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}

// FormatToString is Format with the lines joined by newlines, the shape the
// SRT text payload and the burn-in renderer want.
func (f Formatter) FormatToString(text string) string {
	lines := f.Format(text)
	if len(lines) == 0 {
		return ""
	}
	joined := lines[0]
	for _, line := range lines[1:] {
		joined += "\n" + line
	}
	return joined
}
