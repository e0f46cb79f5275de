package compose

import (
	"fmt"

	"github.com/japaniel/lushi/pkg/sentence"
	"github.com/japaniel/lushi/pkg/word"
)

// Slot asks the lexicon for one word.
type Slot struct {
	Relation word.Relation
	Position word.Position
	Length   int
}

// Pattern is an ordered list of slots. Type selects the padding pool used
// when a slot has to be relaxed.
type Pattern struct {
	Type  sentence.Type
	Slots []Slot
}

// Len is the number of characters the pattern produces.
func (p Pattern) Len() int {
	n := 0
	for _, s := range p.Slots {
		n += s.Length
	}
	return n
}

// Validate checks that the pattern fills exactly cols characters.
func (p Pattern) Validate(cols int) error {
	if len(p.Slots) == 0 {
		return fmt.Errorf("pattern type %d has no slots", p.Type)
	}
	for i, s := range p.Slots {
		if s.Length <= 0 {
			return fmt.Errorf("pattern type %d slot %d: length %d", p.Type, i, s.Length)
		}
		if !s.Relation.Valid() {
			return fmt.Errorf("pattern type %d slot %d: unknown relation %d", p.Type, i, s.Relation)
		}
	}
	if n := p.Len(); n != cols {
		return fmt.Errorf("pattern type %d fills %d characters, want %d", p.Type, n, cols)
	}
	return nil
}

// Sentence types produced by DefaultPatterns.
const (
	Scenic    sentence.Type = iota // scene, action, scene
	Narrative                      // action leading into a longer scene
	Topical                        // opens on the topic
)

func slot(rel word.Relation, pos word.Position, length int) Slot {
	return Slot{Relation: rel, Position: pos, Length: length}
}

// DefaultPatterns returns the built-in patterns for 5 or 7 character lines,
// or nil for any other width.
func DefaultPatterns(cols int) []Pattern {
	switch cols {
	case 5:
		return []Pattern{
			{Type: Scenic, Slots: []Slot{
				slot(word.RelationScene, word.Start, 2),
				slot(word.RelationAction, word.Start, 1),
				slot(word.RelationScene, word.End, 2),
			}},
			{Type: Narrative, Slots: []Slot{
				slot(word.RelationAction, word.Start, 2),
				slot(word.RelationScene, word.End, 3),
			}},
			{Type: Topical, Slots: []Slot{
				slot(word.RelationTopic, word.Start, 2),
				slot(word.RelationAction, word.Start, 1),
				slot(word.RelationScene, word.End, 2),
			}},
		}
	case 7:
		return []Pattern{
			{Type: Scenic, Slots: []Slot{
				slot(word.RelationModifier, word.Start, 2),
				slot(word.RelationScene, word.Start, 2),
				slot(word.RelationAction, word.Start, 1),
				slot(word.RelationScene, word.End, 2),
			}},
			{Type: Narrative, Slots: []Slot{
				slot(word.RelationScene, word.Start, 2),
				slot(word.RelationAction, word.Start, 2),
				slot(word.RelationScene, word.End, 3),
			}},
			{Type: Topical, Slots: []Slot{
				slot(word.RelationTopic, word.Start, 2),
				slot(word.RelationModifier, word.Start, 2),
				slot(word.RelationAction, word.Start, 1),
				slot(word.RelationScene, word.End, 2),
			}},
		}
	}
	return nil
}
