package speech

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"reelsmith/internal/services"
)

// Gender classifies a voice. Unknown voices match every gender filter.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
)

// Voice describes one synthesizer voice.
type Voice struct {
	ID       string
	Name     string
	Language string
	Gender   Gender
}

// EffectiveGender returns the declared gender, falling back to inference
// from name and ID tokens.
func (v Voice) EffectiveGender() Gender {
	if v.Gender != GenderUnknown {
		return v.Gender
	}
	return inferGender(v.Name + " " + v.ID)
}

// Catalog is an immutable set of voices.
type Catalog struct {
	voices []Voice
}

// NewCatalog builds a catalog sorted by language then ID.
func NewCatalog(voices ...Voice) Catalog {
	sorted := append([]Voice(nil), voices...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Language != sorted[j].Language {
			return sorted[i].Language < sorted[j].Language
		}
		return sorted[i].ID < sorted[j].ID
	})
	return Catalog{voices: sorted}
}

// All returns every voice in the catalog.
func (c Catalog) All() []Voice {
	return append([]Voice(nil), c.voices...)
}

// Len returns the number of voices.
func (c Catalog) Len() int {
	return len(c.voices)
}

// Filter returns the voices compatible with the given BCP 47 language tag
// and gender. Empty lang or gender disables that dimension. Language
// compatibility uses x/text matching, so "ja" selects "ja-JP" voices and
// vice versa. Voices without a parseable language are excluded from
// language-filtered results.
func (c Catalog) Filter(lang string, gender Gender) ([]Voice, error) {
	var want language.Tag
	if lang != "" {
		parsed, err := language.Parse(lang)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "speech", "filter-voices",
				"unrecognized language tag "+lang, err)
		}
		want = parsed
	}

	var matched []Voice
	for _, voice := range c.voices {
		if lang != "" && !languageCompatible(want, voice.Language) {
			continue
		}
		if gender != GenderUnknown {
			if vg := voice.EffectiveGender(); vg != GenderUnknown && vg != gender {
				continue
			}
		}
		matched = append(matched, voice)
	}
	return matched, nil
}

// DefaultVoices returns the voices the stock espeak-ng command template
// accepts. Synthesizers with their own inventories supply their own
// catalog.
func DefaultVoices() Catalog {
	return NewCatalog(
		Voice{ID: "ja", Name: "Japanese", Language: "ja-JP"},
		Voice{ID: "ja+f1", Name: "Japanese (female 1)", Language: "ja-JP"},
		Voice{ID: "ja+f3", Name: "Japanese (female 3)", Language: "ja-JP"},
		Voice{ID: "ja+m1", Name: "Japanese (male 1)", Language: "ja-JP"},
		Voice{ID: "ja+m3", Name: "Japanese (male 3)", Language: "ja-JP"},
		Voice{ID: "en-us", Name: "English (America)", Language: "en-US"},
		Voice{ID: "en-us+f2", Name: "English (America, female 2)", Language: "en-US"},
		Voice{ID: "en-us+m2", Name: "English (America, male 2)", Language: "en-US"},
		Voice{ID: "en-gb", Name: "English (Great Britain)", Language: "en-GB"},
		Voice{ID: "ko", Name: "Korean", Language: "ko-KR"},
		Voice{ID: "cmn", Name: "Chinese (Mandarin)", Language: "zh-CN"},
	)
}

// Lookup finds a voice by ID, case-insensitively.
func (c Catalog) Lookup(id string) (Voice, bool) {
	for _, voice := range c.voices {
		if strings.EqualFold(voice.ID, id) {
			return voice, true
		}
	}
	return Voice{}, false
}

func languageCompatible(want language.Tag, voiceLang string) bool {
	tag, err := language.Parse(voiceLang)
	if err != nil {
		return false
	}
	matcher := language.NewMatcher([]language.Tag{tag})
	_, _, confidence := matcher.Match(want)
	return confidence >= language.High
}

var (
	femaleTokens = map[string]struct{}{"female": {}, "f": {}, "woman": {}, "girl": {}}
	maleTokens   = map[string]struct{}{"male": {}, "m": {}, "man": {}, "boy": {}}
)

func inferGender(raw string) Gender {
	for _, token := range tokenize(raw) {
		if _, ok := femaleTokens[token]; ok {
			return GenderFemale
		}
		if _, ok := maleTokens[token]; ok {
			return GenderMale
		}
	}
	return GenderUnknown
}

// tokenize splits on anything outside a-z, so espeak-style variants like
// "japanese+f3" yield the bare "f" token.
func tokenize(raw string) []string {
	return strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}
