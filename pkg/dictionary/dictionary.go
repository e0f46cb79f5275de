// Package dictionary reads and writes the JSON lexicon document that seeds a
// lexicon.Repository.
package dictionary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/japaniel/lushi/pkg/word"
)

// Record is one serialized word.
type Record struct {
	Word       string   `json:"word"`
	Bopomofo   []string `json:"bopomofo"`
	Tone       []int    `json:"tone"`
	WordType   uint32   `json:"wordType"`
	Length     int      `json:"length"`
	Relation   int      `json:"relation"`
	StartOrEnd int      `json:"startOrEnd"`
}

// Document is the on-disk lexicon. PaddingWords is keyed by the decimal
// sentence type.
type Document struct {
	TotalWord    int                 `json:"totalWord"`
	WordPile     []Record            `json:"wordPile"`
	PaddingWords map[string][]Record `json:"paddingWords,omitempty"`
}

// rawDocument defers record decoding so one bad record does not sink the
// whole document.
type rawDocument struct {
	TotalWord    int                          `json:"totalWord"`
	WordPile     []json.RawMessage            `json:"wordPile"`
	PaddingWords map[string][]json.RawMessage `json:"paddingWords"`
}

// ToWord validates the record and converts it. Missing tones are derived
// from the transcription.
func (r Record) ToWord() (word.Word, error) {
	text := strings.TrimSpace(r.Word)
	n := word.RuneCount(text)
	if r.Length != 0 && r.Length != n {
		return word.Word{}, fmt.Errorf("word %q: length %d but %d characters", text, r.Length, n)
	}
	if len(r.Tone) == 0 {
		return word.FromBopomofo(text, r.Bopomofo, word.Type(r.WordType), word.Relation(r.Relation), word.Position(r.StartOrEnd))
	}
	tones := make([]word.Tone, len(r.Tone))
	for i, t := range r.Tone {
		tones[i] = word.Tone(t)
	}
	return word.New(text, r.Bopomofo, tones, word.Type(r.WordType), word.Relation(r.Relation), word.Position(r.StartOrEnd))
}

// FromWord is the inverse of ToWord.
func FromWord(w word.Word) Record {
	tones := w.Tones()
	rt := make([]int, len(tones))
	for i, t := range tones {
		rt[i] = int(t)
	}
	return Record{
		Word:       w.Text(),
		Bopomofo:   w.Bopomofo(),
		Tone:       rt,
		WordType:   uint32(w.Type()),
		Length:     w.Len(),
		Relation:   int(w.Relation()),
		StartOrEnd: int(w.Position()),
	}
}
