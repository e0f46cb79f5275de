package word

import "strings"

// Type is a bitmask of grammatical categories. A word may carry several.
type Type uint32

const (
	Noun Type = 1 << iota
	Verb
	Adjective
	Adverb
	Numeral
	Colour
	Place
	Time
	Nature
	Emotion
)

var typeNames = []struct {
	t    Type
	name string
}{
	{Noun, "noun"},
	{Verb, "verb"},
	{Adjective, "adj"},
	{Adverb, "adv"},
	{Numeral, "num"},
	{Colour, "colour"},
	{Place, "place"},
	{Time, "time"},
	{Nature, "nature"},
	{Emotion, "emotion"},
}

// Has reports whether t includes every category in other.
func (t Type) Has(other Type) bool {
	return t&other == other
}

// String renders the categories joined by "|", e.g. "noun|nature".
func (t Type) String() string {
	if t == 0 {
		return "none"
	}
	var parts []string
	for _, tn := range typeNames {
		if t&tn.t != 0 {
			parts = append(parts, tn.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// ParseType is the inverse of Type.String. Unknown names are ignored.
func ParseType(s string) Type {
	var t Type
	for _, name := range strings.Split(s, "|") {
		name = strings.TrimSpace(name)
		for _, tn := range typeNames {
			if tn.name == name {
				t |= tn.t
			}
		}
	}
	return t
}
