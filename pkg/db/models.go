package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/japaniel/lushi/pkg/word"
)

// WordRow is a stored lexicon word. Bopomofo is space separated and Tones
// holds one digit per character.
type WordRow struct {
	ID       int64
	Word     string
	Bopomofo string
	Tones    string
	WordType uint32
	Length   int
	Relation int
	Position int
}

// PoemRow is a stored, scored poem. Text has one line per row.
type PoemRow struct {
	ID int64
	// RunID groups the poems saved by one generation run.
	RunID      string
	Rows       int
	Cols       int
	Text       string
	Rhyme      int
	Tone       int
	Antithesis int
	Diversity  int
	Total      int
	CreatedAt  time.Time
}

func rowFromWord(w word.Word) WordRow {
	var tones strings.Builder
	for _, t := range w.Tones() {
		tones.WriteByte(byte('0' + t))
	}
	return WordRow{
		Word:     w.Text(),
		Bopomofo: strings.Join(w.Bopomofo(), " "),
		Tones:    tones.String(),
		WordType: uint32(w.Type()),
		Length:   w.Len(),
		Relation: int(w.Relation()),
		Position: int(w.Position()),
	}
}

// ToWord validates the row and converts it.
func (r WordRow) ToWord() (word.Word, error) {
	tones := make([]word.Tone, 0, len(r.Tones))
	for _, c := range r.Tones {
		if c != '0' && c != '1' {
			return word.Word{}, fmt.Errorf("word %d %q: bad tone %q", r.ID, r.Word, c)
		}
		tones = append(tones, word.Tone(c-'0'))
	}
	w, err := word.New(r.Word, strings.Fields(r.Bopomofo), tones,
		word.Type(r.WordType), word.Relation(r.Relation), word.Position(r.Position))
	if err != nil {
		return word.Word{}, fmt.Errorf("word %d: %w", r.ID, err)
	}
	if w.Len() != r.Length {
		return word.Word{}, fmt.Errorf("word %d %q: stored length %d, has %d characters", r.ID, r.Word, r.Length, w.Len())
	}
	return w, nil
}
