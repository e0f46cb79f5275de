package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/japaniel/lushi/pkg/poem"
	"github.com/japaniel/lushi/pkg/sentence"
	"github.com/japaniel/lushi/pkg/word"
)

// PoemDocument is a poem to score: one list of word records per line.
type PoemDocument struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Types []int      `json:"types,omitempty"`
	Lines [][]Record `json:"lines"`
}

// DecodePoem parses a poem document. Unlike lexicon documents a bad record
// is an error: the poem would be scored on different lines.
func DecodePoem(r io.Reader, opts ...poem.Option) (*poem.Poem, error) {
	var doc PoemDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse poem document: %w", err)
	}
	return doc.Poem(opts...)
}

// LoadPoem reads a poem document from path.
func LoadPoem(path string, opts ...poem.Option) (*poem.Poem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodePoem(f, opts...)
}

// Poem converts the document. Types, when present, tags each line.
func (d PoemDocument) Poem(opts ...poem.Option) (*poem.Poem, error) {
	lines := make([]sentence.Sentence, len(d.Lines))
	for i, recs := range d.Lines {
		words := make([]word.Word, len(recs))
		for j, rec := range recs {
			w, err := rec.ToWord()
			if err != nil {
				return nil, fmt.Errorf("line %d word %d: %w", i+1, j+1, err)
			}
			words[j] = w
		}
		var t sentence.Type
		if i < len(d.Types) {
			t = sentence.Type(d.Types[i])
		}
		lines[i] = sentence.New(t, words...)
	}
	return poem.New(d.Rows, d.Cols, lines, opts...)
}

// NewPoemDocument is the inverse of PoemDocument.Poem.
func NewPoemDocument(p *poem.Poem) PoemDocument {
	lines := p.Lines()
	doc := PoemDocument{
		Rows:  p.Row(),
		Cols:  p.Col(),
		Types: make([]int, len(lines)),
		Lines: make([][]Record, len(lines)),
	}
	for i, s := range lines {
		doc.Types[i] = int(s.Type)
		doc.Lines[i] = make([]Record, len(s.Words))
		for j, w := range s.Words {
			doc.Lines[i][j] = FromWord(w)
		}
	}
	return doc
}
