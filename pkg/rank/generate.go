package rank

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/japaniel/lushi/pkg/poem"
)

// Generate calls newPoem n times on up to workers goroutines and returns the
// poems in call order. The first error cancels the rest. newPoem must be
// safe for concurrent use.
func Generate(ctx context.Context, n, workers int, newPoem func() (*poem.Poem, error)) ([]*poem.Poem, error) {
	if n < 0 {
		return nil, fmt.Errorf("generate: negative count %d", n)
	}
	poems := make([]*poem.Poem, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i := range poems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := newPoem()
			if err != nil {
				return fmt.Errorf("poem %d: %w", i+1, err)
			}
			poems[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return poems, nil
}

// RandomPoem wraps poem.Random for Generate, turning its construction panic
// into an error.
func RandomPoem(row, col int, maker poem.Maker, opts ...poem.Option) func() (*poem.Poem, error) {
	return func() (p *poem.Poem, err error) {
		defer func() {
			if r := recover(); r != nil {
				ie, ok := r.(*poem.InvariantError)
				if !ok {
					panic(r)
				}
				err = ie
			}
		}()
		return poem.Random(row, col, maker, opts...), nil
	}
}
