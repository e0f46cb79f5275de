// Package rank scores candidate poems in parallel and orders them best
// first.
package rank

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/poem"
)

// Ranker evaluates poems on a worker pool.
type Ranker struct {
	Workers int
	Logger  *zap.Logger
}

// Rank evaluates every poem and returns them sorted by descending fitness,
// ties in input order. The input slice is not reordered. A poem listed more
// than once is evaluated once and keeps every position in the result. Poems
// must not be shared between concurrent Rank calls.
func (r Ranker) Rank(ctx context.Context, poems []*poem.Poem) ([]*poem.Poem, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	pool := NewWorkerPool(workers, workers*2)
	var failed atomic.Int32
	pool.OnError = func(err error) {
		failed.Add(1)
		logger.Debug("ranking job failed", zap.Error(err))
	}
	pool.Start(ctx)

	seen := make(map[*poem.Poem]struct{}, len(poems))
	for _, p := range poems {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		err := pool.SubmitCtx(ctx, func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.Fitness()
			return nil
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("rank: %w", err)
		}
	}
	pool.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	if n := failed.Load(); n > 0 {
		return nil, fmt.Errorf("rank: %d evaluations did not run", n)
	}

	out := make([]*poem.Poem, len(poems))
	copy(out, poems)
	poem.Sort(out)
	if len(out) > 0 {
		logger.Debug("ranked", zap.Int("poems", len(out)), zap.Int("best", out[0].Fitness()))
	}
	return out, nil
}

// Best returns the n fittest poems.
func (r Ranker) Best(ctx context.Context, poems []*poem.Poem, n int) ([]*poem.Poem, error) {
	ranked, err := r.Rank(ctx, poems)
	if err != nil {
		return nil, err
	}
	return ranked[:max(0, min(n, len(ranked)))], nil
}
