// Package compose builds random lines of verse from the lexicon by filling
// sentence patterns slot by slot.
package compose

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/lexicon"
	"github.com/japaniel/lushi/pkg/sentence"
	"github.com/japaniel/lushi/pkg/word"
)

// ErrCannotConstruct is returned when no pattern could be filled.
var ErrCannotConstruct = errors.New("cannot construct sentence")

// Source is the part of the lexicon the Maker draws from.
// *lexicon.Repository implements it.
type Source interface {
	Topic() word.Word
	RelationWord(rel word.Relation, pos word.Position, length int) (word.Word, error)
	PaddingWord(t sentence.Type) word.Word
	PaddingCount(t sentence.Type) int
}

const defaultRetries = 8

// Maker makes random sentences of a fixed width. It is safe for concurrent
// use if its Source is.
type Maker struct {
	src      Source
	cols     int
	patterns []Pattern
	retries  int
	logger   *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// Option configures a Maker.
type Option func(*Maker)

// WithPatterns replaces DefaultPatterns.
func WithPatterns(patterns ...Pattern) Option {
	return func(m *Maker) { m.patterns = patterns }
}

// WithRetries bounds the number of patterns tried per sentence.
func WithRetries(n int) Option {
	return func(m *Maker) {
		if n > 0 {
			m.retries = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Maker) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(m *Maker) {
		if rng != nil {
			m.rand = rng
		}
	}
}

// New creates a Maker for lines of cols characters. Every pattern must fill
// exactly cols characters.
func New(src Source, cols int, opts ...Option) (*Maker, error) {
	m := &Maker{
		src:      src,
		cols:     cols,
		patterns: DefaultPatterns(cols),
		retries:  defaultRetries,
		logger:   zap.NewNop(),
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.patterns) == 0 {
		return nil, fmt.Errorf("no sentence patterns for %d-character lines", cols)
	}
	for _, p := range m.patterns {
		if err := p.Validate(cols); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MakeRandomSentence fills randomly chosen patterns until one succeeds or
// the retry budget runs out.
func (m *Maker) MakeRandomSentence() (sentence.Sentence, error) {
	var errs []error
	for i := 0; i < m.retries; i++ {
		p := m.patterns[m.intN(len(m.patterns))]
		s, err := m.Make(p)
		if err == nil {
			return s, nil
		}
		errs = append(errs, err)
	}
	return sentence.Sentence{}, fmt.Errorf("%w after %d attempts: %w", ErrCannotConstruct, m.retries, errors.Join(errs...))
}

// Make fills one pattern. A slot whose bucket is empty is relaxed into
// padding words of the pattern's type.
func (m *Maker) Make(p Pattern) (sentence.Sentence, error) {
	words := make([]word.Word, 0, len(p.Slots))
	for _, s := range p.Slots {
		if s.Relation == word.RelationTopic {
			if topic := m.src.Topic(); topic.Len() == s.Length {
				words = append(words, topic)
				continue
			}
		}

		w, err := m.src.RelationWord(s.Relation, s.Position, s.Length)
		if err == nil {
			words = append(words, w)
			continue
		}
		if !errors.Is(err, lexicon.ErrNoMatchingWord) {
			return sentence.Sentence{}, err
		}

		pad, ok := m.pad(p.Type, s.Length)
		if !ok {
			return sentence.Sentence{}, fmt.Errorf("%w: %w", ErrCannotConstruct, err)
		}
		m.logger.Debug("slot relaxed to padding",
			zap.Stringer("relation", s.Relation),
			zap.Stringer("position", s.Position),
			zap.Int("length", s.Length),
			zap.Int("type", int(p.Type)))
		words = append(words, pad...)
	}
	return sentence.New(p.Type, words...), nil
}

// pad draws padding words until exactly length characters are covered.
func (m *Maker) pad(t sentence.Type, length int) ([]word.Word, bool) {
	if m.src.PaddingCount(t) == 0 {
		return nil, false
	}
	var out []word.Word
	remaining := length
	for draws := 0; remaining > 0 && draws < 8*length; draws++ {
		w := m.src.PaddingWord(t)
		if w.Len() <= remaining {
			out = append(out, w)
			remaining -= w.Len()
		}
	}
	return out, remaining == 0
}

func (m *Maker) intN(n int) int {
	m.randMu.Lock()
	defer m.randMu.Unlock()
	return m.rand.IntN(n)
}
