package session

import (
	"context"
	"runtime"

	"github.com/san-kum/orbiter/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batch runs several headless sessions concurrently. Each session owns its
// engine, so runs share nothing but the logger.
type Batch struct {
	workers int
	logger  *zap.Logger
}

func NewBatch(workers int, logger *zap.Logger) *Batch {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{workers: workers, logger: logger}
}

// Run returns one result per config, in config order. The first failure
// cancels the remaining runs.
func (b *Batch) Run(ctx context.Context, cfgs []*config.Config) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			res, err := RunHeadless(gctx, cfg, b.logger.With(zap.Int("run", i)))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
