package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalyzeFunc analyzes one directory. A returned error aborts the batch;
// per-filing failures belong on Outcome.Err.
type AnalyzeFunc func(ctx context.Context, dir string) (Outcome, error)

// BatchReport collects the outcomes of a batch in input order.
type BatchReport struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
	Skipped   int
}

// Batch runs fn over dirs with at most concurrency filings in flight.
func Batch(ctx context.Context, dirs []string, concurrency int, fn AnalyzeFunc) (*BatchReport, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	rep := &BatchReport{Outcomes: make([]Outcome, len(dirs))}
	if len(dirs) == 0 {
		zap.L().Info("pipeline: no filings to process")
		return rep, nil
	}

	zap.L().Info("pipeline: processing batch",
		zap.Int("filings", len(dirs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed, skipped atomic.Int64
	for i, dir := range dirs {
		g.Go(func() error {
			out, err := fn(gctx, dir)
			if err != nil {
				return eris.Wrapf(err, "pipeline: batch %s", dir)
			}
			out.Dir = dir
			rep.Outcomes[i] = out

			log := zap.L().With(zap.String("dir", dir))
			switch {
			case out.Err != nil:
				failed.Add(1)
				log.Error("pipeline: analysis failed", zap.Error(out.Err))
			case out.Skipped:
				skipped.Add(1)
			default:
				succeeded.Add(1)
				if out.Result != nil {
					log.Info("pipeline: analysis complete",
						zap.String("industry", out.Result.Industry.Industry),
						zap.Int("ratios_valid", out.Result.ValidRatios()),
					)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	rep.Succeeded = int(succeeded.Load())
	rep.Failed = int(failed.Load())
	rep.Skipped = int(skipped.Load())
	if err != nil {
		return rep, eris.Wrap(err, "pipeline: batch processing")
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("failed", rep.Failed),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

// AnalyzeOnly adapts an Analyzer to an AnalyzeFunc that persists nothing.
func AnalyzeOnly(a *Analyzer) AnalyzeFunc {
	return func(ctx context.Context, dir string) (Outcome, error) {
		res, err := a.Analyze(ctx, dir)
		return Outcome{Dir: dir, Result: res, Err: err}, nil
	}
}
