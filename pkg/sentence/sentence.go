// Package sentence holds one line of verse as an ordered run of words.
package sentence

import (
	"strings"

	"github.com/japaniel/lushi/pkg/word"
)

// Type tags the construction pattern a sentence was built from.
type Type int

// Sentence is an ordered sequence of words. Words is exported so that callers
// holding a poem's lines for mutation can substitute words in place.
type Sentence struct {
	Type  Type
	Words []word.Word
}

// New builds a Sentence owning its own copy of words.
func New(t Type, words ...word.Word) Sentence {
	s := Sentence{Type: t, Words: make([]word.Word, len(words))}
	copy(s.Words, words)
	return s
}

// Len is the number of characters in the sentence.
func (s Sentence) Len() int {
	n := 0
	for _, w := range s.Words {
		n += w.Len()
	}
	return n
}

// Clone returns a sentence with an independent word slice. Word values are
// immutable so copying the slice is a deep copy.
func (s Sentence) Clone() Sentence {
	return New(s.Type, s.Words...)
}

// Last returns the final word. It panics on an empty sentence.
func (s Sentence) Last() word.Word {
	return s.Words[len(s.Words)-1]
}

// Text joins the words without separators.
func (s Sentence) Text() string {
	var b strings.Builder
	for _, w := range s.Words {
		b.WriteString(w.Text())
	}
	return b.String()
}

// String joins the words with a space, exposing the segmentation.
func (s Sentence) String() string {
	parts := make([]string, len(s.Words))
	for i, w := range s.Words {
		parts[i] = w.Text()
	}
	return strings.Join(parts, " ")
}
