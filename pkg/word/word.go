// Package word defines the atomic lexical unit used to build and score verse.
package word

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Tone is the binary prosodic class of a syllable.
type Tone int

const (
	Flat    Tone = 0 // 平
	Oblique Tone = 1 // 仄
)

func (t Tone) String() string {
	if t == Flat {
		return "平"
	}
	return "仄"
}

// Position marks whether a word is meant to open or close a phrase.
type Position int

const (
	Start Position = 0
	End   Position = 1

	NumPositions = 2
)

func (p Position) String() string {
	if p == Start {
		return "start"
	}
	return "end"
}

// Relation is the grammatical role a word fills when a sentence is assembled.
type Relation int

const (
	RelationTopic Relation = iota
	RelationScene
	RelationAction
	RelationModifier
	RelationFiller

	NumRelations = 5
)

var relationNames = [...]string{"topic", "scene", "action", "modifier", "filler"}

func (r Relation) String() string {
	if r < 0 || int(r) >= NumRelations {
		return fmt.Sprintf("relation(%d)", int(r))
	}
	return relationNames[r]
}

// Valid reports whether r is one of the known relations.
func (r Relation) Valid() bool {
	return r >= 0 && int(r) < NumRelations
}

// Word is an immutable lexical unit. The zero value is an empty word and is
// never produced by New.
type Word struct {
	text     string
	runes    []rune
	bopomofo []string // one syllable per character
	tones    []Tone
	typ      Type
	relation Relation
	position Position
}

// New builds a Word and checks that text, transcription and tones agree on
// the number of characters.
func New(text string, bopomofo []string, tones []Tone, typ Type, rel Relation, pos Position) (Word, error) {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n == 0 {
		return Word{}, fmt.Errorf("word must be non-empty")
	}
	if len(bopomofo) != n {
		return Word{}, fmt.Errorf("word %q: %d characters but %d syllables", text, n, len(bopomofo))
	}
	if len(tones) != n {
		return Word{}, fmt.Errorf("word %q: %d characters but %d tones", text, n, len(tones))
	}
	for i, t := range tones {
		if t != Flat && t != Oblique {
			return Word{}, fmt.Errorf("word %q: invalid tone %d at %d", text, int(t), i)
		}
	}
	if !rel.Valid() {
		return Word{}, fmt.Errorf("word %q: invalid relation %d", text, int(rel))
	}
	if pos != Start && pos != End {
		return Word{}, fmt.Errorf("word %q: invalid position %d", text, int(pos))
	}

	w := Word{
		text:     string(runes),
		runes:    runes,
		bopomofo: make([]string, n),
		tones:    make([]Tone, n),
		typ:      typ,
		relation: rel,
		position: pos,
	}
	copy(w.bopomofo, bopomofo)
	copy(w.tones, tones)
	return w, nil
}

// FromBopomofo builds a Word deriving the tones from the transcription.
func FromBopomofo(text string, bopomofo []string, typ Type, rel Relation, pos Position) (Word, error) {
	tones := make([]Tone, len(bopomofo))
	for i, s := range bopomofo {
		tones[i] = ToneOf(s)
	}
	return New(text, bopomofo, tones, typ, rel, pos)
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(text string, bopomofo []string, tones []Tone, typ Type, rel Relation, pos Position) Word {
	w, err := New(text, bopomofo, tones, typ, rel, pos)
	if err != nil {
		panic(err)
	}
	return w
}

func (w Word) Text() string       { return w.text }
func (w Word) Len() int           { return len(w.runes) }
func (w Word) Type() Type         { return w.typ }
func (w Word) Relation() Relation { return w.relation }
func (w Word) Position() Position { return w.position }

// CharAt returns the i-th (0-based) character.
func (w Word) CharAt(i int) rune { return w.runes[i] }

// ToneAt returns the tone of the i-th (0-based) character.
func (w Word) ToneAt(i int) Tone { return w.tones[i] }

// Tones returns a copy of the per-character tones.
func (w Word) Tones() []Tone {
	out := make([]Tone, len(w.tones))
	copy(out, w.tones)
	return out
}

// Bopomofo returns a copy of the per-character syllables.
func (w Word) Bopomofo() []string {
	out := make([]string, len(w.bopomofo))
	copy(out, w.bopomofo)
	return out
}

// Rhyme is the rhyme class of the word's final character.
func (w Word) Rhyme() Rhyme {
	if len(w.bopomofo) == 0 {
		return NoRhyme
	}
	return RhymeOf(w.bopomofo[len(w.bopomofo)-1])
}

// Matches reports whether the two words share at least one category.
func (w Word) Matches(other Word) bool {
	return w.typ&other.typ != 0
}

func (w Word) String() string {
	if w.text == "" {
		return "<empty>"
	}
	return fmt.Sprintf("%s(%s)", w.text, w.typ)
}

// Equal reports whether two words carry the same text and metadata.
func (w Word) Equal(other Word) bool {
	if w.text != other.text || w.typ != other.typ || w.relation != other.relation || w.position != other.position {
		return false
	}
	for i := range w.tones {
		if w.tones[i] != other.tones[i] || w.bopomofo[i] != other.bopomofo[i] {
			return false
		}
	}
	return true
}

// RuneCount returns the number of characters in s after trimming.
func RuneCount(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
