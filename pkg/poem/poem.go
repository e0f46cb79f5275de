// Package poem scores a grid of verse lines against the rules of regulated
// verse: rhyme, tonal pattern, antithesis and lexical diversity.
//
// A Poem owns a deep copy of its lines. Poems built from the same template
// can therefore be mutated and scored on separate goroutines without locking.
package poem

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/sentence"
)

const (
	MaxRhymeScore      = 200
	MaxToneScore       = 200
	MaxAntithesisScore = 100
	MaxDiversityScore  = 100
)

// ErrInvalidShape is returned when the grid dimensions or line lengths are
// outside the supported forms (4 or 8 lines of 5 or 7 characters).
var ErrInvalidShape = errors.New("invalid poem shape")

// InvariantError is the panic value for states that valid input can never
// reach. It is not meant to be recovered.
type InvariantError struct{ msg string }

func (e *InvariantError) Error() string { return "poem: " + e.msg }

func fatalf(format string, args ...any) {
	panic(&InvariantError{msg: fmt.Sprintf(format, args...)})
}

// Maker produces one random line of verse.
type Maker interface {
	MakeRandomSentence() (sentence.Sentence, error)
}

// Score is the breakdown of a fitness evaluation.
type Score struct {
	Rhyme      int
	Tone       int
	Antithesis int
	Diversity  int
}

// Total is the composite fitness.
func (s Score) Total() int {
	return s.Rhyme + s.Tone + s.Antithesis + s.Diversity
}

// Poem is a row x col grid of sentences with a lazily cached fitness score.
type Poem struct {
	row, col int
	lines    []sentence.Sentence

	stale bool
	score Score

	maxRhymeMatch      int
	maxToneMatch       int
	maxAntithesisMatch int

	logger *zap.Logger

	// evaluations counts fitness recomputations.
	evaluations int
}

// Option configures a Poem.
type Option func(*Poem)

// WithLogger routes scoring traces to logger at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Poem) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New builds a Poem from exactly row lines. Every sentence is copied word for
// word; the caller's slice is never retained.
func New(row, col int, lines []sentence.Sentence, opts ...Option) (*Poem, error) {
	if row != 4 && row != 8 {
		return nil, fmt.Errorf("%w: %d lines, want 4 or 8", ErrInvalidShape, row)
	}
	if col != 5 && col != 7 {
		return nil, fmt.Errorf("%w: %d characters per line, want 5 or 7", ErrInvalidShape, col)
	}
	if len(lines) != row {
		return nil, fmt.Errorf("%w: %d lines given, want %d", ErrInvalidShape, len(lines), row)
	}

	p := &Poem{
		row:    row,
		col:    col,
		lines:  make([]sentence.Sentence, row),
		stale:  true,
		logger: zap.NewNop(),
	}
	for i := 0; i < row; i++ {
		if n := lines[i].Len(); n != col || len(lines[i].Words) == 0 {
			return nil, fmt.Errorf("%w: line %d has %d characters, want %d", ErrInvalidShape, i+1, n, col)
		}
		p.lines[i] = lines[i].Clone()
	}
	for _, opt := range opts {
		opt(p)
	}

	p.maxRhymeMatch = row / 2
	if col == 5 {
		p.maxToneMatch = 3 * row
	} else {
		p.maxToneMatch = 4 * row
	}
	p.maxAntithesisMatch = row * col / 2
	return p, nil
}

// Random builds a Poem from row freshly made sentences. Any failure to make a
// sentence is fatal: the generator is misconfigured and cannot proceed.
func Random(row, col int, maker Maker, opts ...Option) *Poem {
	lines := make([]sentence.Sentence, row)
	for i := range lines {
		s, err := maker.MakeRandomSentence()
		if err != nil {
			fatalf("cannot make a random poem: line %d: %v", i+1, err)
		}
		lines[i] = s
	}
	p, err := New(row, col, lines, opts...)
	if err != nil {
		fatalf("cannot make a random poem: %v", err)
	}
	return p
}

// Clone returns an independent Poem built from the current lines.
func (p *Poem) Clone() *Poem {
	c, err := New(p.row, p.col, p.lines, WithLogger(p.logger))
	if err != nil {
		fatalf("clone of a malformed poem: %v", err)
	}
	return c
}

func (p *Poem) Row() int { return p.row }
func (p *Poem) Col() int { return p.col }

// Sentences returns the poem's own lines for mutation. The cached score is
// invalidated on every call.
func (p *Poem) Sentences() []sentence.Sentence {
	p.stale = true
	return p.lines
}

// Lines returns a copy of the poem's lines. The cached score stays valid.
func (p *Poem) Lines() []sentence.Sentence {
	out := make([]sentence.Sentence, len(p.lines))
	for i, s := range p.lines {
		out[i] = s.Clone()
	}
	return out
}

// Fitness returns the composite score, recomputing it only if the lines may
// have changed since the last evaluation.
func (p *Poem) Fitness() int {
	return p.Scores().Total()
}

// Scores returns the sub-score breakdown behind Fitness.
func (p *Poem) Scores() Score {
	if p.stale {
		p.stale = false
		p.evaluate()
	}
	return p.score
}

func (p *Poem) evaluate() {
	p.evaluations++
	p.score = Score{
		Rhyme:      p.rhymeScore(),
		Tone:       p.toneScore(),
		Antithesis: p.antithesisScore(),
		Diversity:  p.diversityScore(),
	}
	p.logger.Debug("fitness evaluated",
		zap.Int("rhyme", p.score.Rhyme),
		zap.Int("tone", p.score.Tone),
		zap.Int("antithesis", p.score.Antithesis),
		zap.Int("diversity", p.score.Diversity),
		zap.Int("total", p.score.Total()))
}

// Report renders the score breakdown on one line.
func (p *Poem) Report() string {
	s := p.Scores()
	return fmt.Sprintf("押韻: %d/%d, 平仄: %d/%d, 對偶: %d/%d, 多樣性: %d/%d",
		s.Rhyme, MaxRhymeScore, s.Tone, MaxToneScore,
		s.Antithesis, MaxAntithesisScore, s.Diversity, MaxDiversityScore)
}

func (p *Poem) String() string {
	var b strings.Builder
	for _, line := range p.lines {
		b.WriteString(line.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Compare orders poems by descending fitness; equal scores compare equal.
func Compare(a, b *Poem) int {
	fa, fb := a.Fitness(), b.Fitness()
	switch {
	case fa > fb:
		return -1
	case fa < fb:
		return 1
	}
	return 0
}

// Sort orders poems best first. Ties keep their relative order.
func Sort(poems []*Poem) {
	slices.SortStableFunc(poems, Compare)
}
