package sim

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/apid/internal/dynamo"
)

// Factory builds a fresh closed loop for one ensemble member. It must not
// return parts shared with other members: controllers and approximators are
// not safe for concurrent use.
type Factory func(seed int64) (*Simulator, error)

// Ensemble runs the same experiment under consecutive seeds in parallel.
type Ensemble struct {
	build     Factory
	numRuns   int
	seedStart int64
	log       *zap.Logger
}

func NewEnsemble(build Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart, log: zap.NewNop()}
}

func (e *Ensemble) SetLogger(l *zap.Logger) {
	if l != nil {
		e.log = l
	}
}

// Run returns one result per seed, in seed order. The first failing member
// cancels the rest.
func (e *Ensemble) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) ([]*dynamo.Result, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("%w: ensemble size %d", dynamo.ErrParameterBounds, e.numRuns)
	}

	results := make([]*dynamo.Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			seed := e.seedStart + int64(idx)
			s, err := e.build(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}

			cfgCopy := cfg
			cfgCopy.Seed = seed

			res, err := s.Run(ctx, x0, cfgCopy)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[idx] = res
			e.log.Debug("ensemble member done", zap.Int64("seed", seed))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
