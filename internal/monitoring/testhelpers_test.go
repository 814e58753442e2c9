package monitoring

import (
	"context"
	"time"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/store"
)

// fakeRuns pages over runs held newest first.
type fakeRuns struct {
	runs    []model.Run
	listErr error
	calls   int
}

func (f *fakeRuns) ListRuns(_ context.Context, filter store.RunFilter) ([]model.Run, error) {
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if filter.Offset >= len(f.runs) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(f.runs) {
		end = len(f.runs)
	}
	return f.runs[filter.Offset:end], nil
}

func completeRun(age time.Duration, industry string, valid, total, identityFailures int) model.Run {
	return model.Run{
		Status:    model.RunStatusComplete,
		CreatedAt: time.Now().UTC().Add(-age),
		Summary: &model.RunSummary{
			Industry:         industry,
			RatiosValid:      valid,
			RatiosTotal:      total,
			IdentityFailures: identityFailures,
			Promotions:       1,
		},
	}
}

func failedRun(age time.Duration) model.Run {
	return model.Run{
		Status:    model.RunStatusFailed,
		Error:     "pipeline: no facts in filing",
		CreatedAt: time.Now().UTC().Add(-age),
	}
}
