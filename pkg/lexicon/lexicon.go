// Package lexicon stores the known words indexed by relation, position and
// length, and hands out random words for sentence construction.
package lexicon

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/sentence"
	"github.com/japaniel/lushi/pkg/word"
)

// Key addresses one bucket of the index.
type Key struct {
	Relation word.Relation
	Position word.Position
	Length   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Relation, k.Position, k.Length)
}

// ErrNoMatchingWord is matched by every NoMatchingWordError.
var ErrNoMatchingWord = errors.New("no matching word")

// ErrTopicLookup wraps a failure to transcribe the topic word.
var ErrTopicLookup = errors.New("topic lookup failed")

// NoMatchingWordError reports an empty bucket. Callers are expected to retry
// with relaxed constraints.
type NoMatchingWordError struct {
	Relation word.Relation
	Position word.Position
	Length   int
}

func (e *NoMatchingWordError) Error() string {
	return fmt.Sprintf("no matching word: relation %s, position %s, length %d", e.Relation, e.Position, e.Length)
}

func (e *NoMatchingWordError) Is(target error) bool { return target == ErrNoMatchingWord }

// InvariantError is the panic value for a misconfigured repository.
type InvariantError struct{ msg string }

func (e *InvariantError) Error() string { return "lexicon: " + e.msg }

// Lookup transcribes text into one bopomofo syllable per character.
type Lookup interface {
	Lookup(ctx context.Context, text string) ([]string, error)
}

// Repository is the categorised word store. Loading (AddWords,
// SetPaddingWords) must finish before concurrent readers start; the locks
// only keep the race detector quiet for that handover.
type Repository struct {
	topic word.Word

	mu      sync.RWMutex
	index   map[Key][]word.Word
	batches [][]word.Word
	total   int
	padding map[sentence.Type][]word.Word

	randMu sync.Mutex
	rand   *rand.Rand

	logger *zap.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for load progress.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRand replaces the random source, mainly for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(r *Repository) {
		if rng != nil {
			r.rand = rng
		}
	}
}

// New creates an empty repository around a topic word. The topic's
// transcription comes from lookup; without it the repository is unusable, so
// any lookup failure is returned and no repository is built.
func New(ctx context.Context, topic string, typ word.Type, lookup Lookup, opts ...Option) (*Repository, error) {
	r := &Repository{
		index:   make(map[Key][]word.Word),
		padding: make(map[sentence.Type][]word.Word),
		rand:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	syllables, err := lookup.Lookup(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrTopicLookup, topic, err)
	}
	r.topic, err = word.FromBopomofo(topic, syllables, typ, word.RelationTopic, word.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTopicLookup, err)
	}
	r.logger.Info("topic set", zap.String("topic", topic), zap.Strings("bopomofo", syllables))
	return r, nil
}

// Topic returns the distinguished topic word.
func (r *Repository) Topic() word.Word {
	return r.topic
}

// AddWords appends a batch to the inventory and indexes every word under
// its relation, position and length. Nothing is ever replaced.
func (r *Repository) AddWords(words []word.Word) {
	batch := make([]word.Word, len(words))
	copy(batch, words)

	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.total += len(batch)
	for _, w := range batch {
		k := Key{Relation: w.Relation(), Position: w.Position(), Length: w.Len()}
		r.index[k] = append(r.index[k], w)
	}
	total := r.total
	r.mu.Unlock()

	r.logger.Info("words added", zap.Int("added", len(batch)), zap.Int("total", total))
}

// SetPaddingWords installs the padding pools, one per sentence type.
func (r *Repository) SetPaddingWords(pools map[sentence.Type][]word.Word) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.padding = make(map[sentence.Type][]word.Word, len(pools))
	for t, pool := range pools {
		r.padding[t] = slices.Clone(pool)
	}
}

// PaddingWords returns a copy of the padding pools.
func (r *Repository) PaddingWords() map[sentence.Type][]word.Word {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[sentence.Type][]word.Word, len(r.padding))
	for t, pool := range r.padding {
		out[t] = slices.Clone(pool)
	}
	return out
}

// RelationWord picks a uniformly random word from the bucket. An empty bucket
// yields a *NoMatchingWordError.
func (r *Repository) RelationWord(rel word.Relation, pos word.Position, length int) (word.Word, error) {
	k := Key{Relation: rel, Position: pos, Length: length}
	r.mu.RLock()
	bucket := r.index[k]
	r.mu.RUnlock()

	if len(bucket) == 0 {
		return word.Word{}, &NoMatchingWordError{Relation: rel, Position: pos, Length: length}
	}
	return bucket[r.intN(len(bucket))], nil
}

// PaddingWord picks a random padding word for the sentence type. An empty or
// missing pool is a setup error and panics.
func (r *Repository) PaddingWord(t sentence.Type) word.Word {
	r.mu.RLock()
	pool := r.padding[t]
	r.mu.RUnlock()

	if len(pool) == 0 {
		panic(&InvariantError{msg: fmt.Sprintf("no padding words configured for sentence type %d", t)})
	}
	return pool[r.intN(len(pool))]
}

// PaddingCount is the size of the padding pool for t.
func (r *Repository) PaddingCount(t sentence.Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.padding[t])
}

func (r *Repository) intN(n int) int {
	r.randMu.Lock()
	defer r.randMu.Unlock()
	return r.rand.IntN(n)
}

// Total is the number of words added so far.
func (r *Repository) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Inventory returns every added word in insertion order.
func (r *Repository) Inventory() []word.Word {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]word.Word, 0, r.total)
	for _, batch := range r.batches {
		out = append(out, batch...)
	}
	return out
}

// Count is the size of one bucket.
func (r *Repository) Count(k Key) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index[k])
}

// Bucket returns a copy of the words under k.
func (r *Repository) Bucket(k Key) []word.Word {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.index[k])
}

// Keys lists the non-empty buckets in relation, position, length order.
func (r *Repository) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.index))
	for k, ws := range r.index {
		if len(ws) > 0 {
			keys = append(keys, k)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(keys, func(a, b Key) int {
		if a.Relation != b.Relation {
			return int(a.Relation) - int(b.Relation)
		}
		if a.Position != b.Position {
			return int(a.Position) - int(b.Position)
		}
		return a.Length - b.Length
	})
	return keys
}

// String summarises bucket sizes for word lengths 1 to 3.
func (r *Repository) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d words\n", r.Total())
	for rel := word.Relation(0); int(rel) < word.NumRelations; rel++ {
		b.WriteString(rel.String())
		b.WriteByte('\n')
		for pos := word.Start; int(pos) < word.NumPositions; pos++ {
			fmt.Fprintf(&b, "  %s:", pos)
			for length := 1; length <= 3; length++ {
				fmt.Fprintf(&b, " %d", r.Count(Key{Relation: rel, Position: pos, Length: length}))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
