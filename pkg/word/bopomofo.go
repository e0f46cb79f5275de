package word

import "strings"

// Rhyme identifies a rhyme class by the final bopomofo symbol of a syllable.
type Rhyme rune

// NoRhyme is returned for syllables without a recognisable final.
const NoRhyme Rhyme = 0

func (r Rhyme) String() string {
	if r == NoRhyme {
		return "?"
	}
	return string(rune(r))
}

// Tone marks. The first tone is usually unmarked but ˉ is accepted.
const (
	markFirst   = 'ˉ'
	markSecond  = 'ˊ'
	markThird   = 'ˇ'
	markFourth  = 'ˋ'
	markNeutral = '˙'
)

func isToneMark(r rune) bool {
	switch r {
	case markFirst, markSecond, markThird, markFourth, markNeutral:
		return true
	}
	return false
}

// IsBopomofo reports whether r is a bopomofo letter (U+3105..U+312F, U+31A0..U+31BF).
func IsBopomofo(r rune) bool {
	return (r >= 0x3105 && r <= 0x312F) || (r >= 0x31A0 && r <= 0x31BF)
}

// ToneOf classifies a bopomofo syllable. Third, fourth and neutral tones are
// oblique; first and second are flat.
func ToneOf(syllable string) Tone {
	for _, r := range syllable {
		switch r {
		case markThird, markFourth, markNeutral:
			return Oblique
		}
	}
	return Flat
}

// RhymeOf returns the rhyme class of a single syllable.
func RhymeOf(syllable string) Rhyme {
	var last rune
	for _, r := range strings.TrimSpace(syllable) {
		if isToneMark(r) {
			continue
		}
		last = r
	}
	return Rhyme(last)
}

// SplitSyllables splits a space separated transcription ("ㄕㄢ ㄕㄨㄟˇ").
func SplitSyllables(s string) []string {
	return strings.Fields(s)
}
