// Package monitoring watches the quality of recorded analysis runs and
// raises alerts when failure or integrity rates cross thresholds.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/store"
)

const pageSize = 500

// MetricsSnapshot holds a point-in-time view of run quality.
type MetricsSnapshot struct {
	// Run counts within the lookback window.
	Total    int     `json:"total"`
	Complete int     `json:"complete"`
	Failed   int     `json:"failed"`
	Queued   int     `json:"queued"`
	Running  int     `json:"running"`
	FailRate float64 `json:"fail_rate"`

	// Integrity over complete runs with a summary.
	Summarized          int            `json:"summarized"`
	RatioCoverage       float64        `json:"ratio_coverage"`
	IdentityFailureRate float64        `json:"identity_failure_rate"`
	Promotions          int            `json:"promotions"`
	Industries          map[string]int `json:"industries,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Finished counts runs that reached a terminal status.
func (s *MetricsSnapshot) Finished() int { return s.Complete + s.Failed }

// RunLister is the slice of the store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers metrics from the run store.
type Collector struct {
	runs RunLister
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs}
}

// Collect gathers a snapshot over the given lookback window. Runs are read
// newest first, page by page, until one falls before the window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		Industries:    make(map[string]int),
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	var ratiosValid, ratiosTotal, identityRuns int
	for offset := 0; ; offset += pageSize {
		page, err := c.runs.ListRuns(ctx, store.RunFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list runs")
		}

		expired := false
		for _, r := range page {
			if r.CreatedAt.Before(cutoff) {
				expired = true
				break
			}
			snap.Total++
			switch r.Status {
			case model.RunStatusComplete:
				snap.Complete++
			case model.RunStatusFailed:
				snap.Failed++
			case model.RunStatusQueued:
				snap.Queued++
			case model.RunStatusRunning:
				snap.Running++
			}

			if r.Status != model.RunStatusComplete || r.Summary == nil {
				continue
			}
			sum := r.Summary
			snap.Summarized++
			snap.Promotions += sum.Promotions
			ratiosValid += sum.RatiosValid
			ratiosTotal += sum.RatiosTotal
			if sum.IdentityFailures > 0 {
				identityRuns++
			}
			if sum.Industry != "" {
				snap.Industries[sum.Industry]++
			}
		}
		if expired || len(page) < pageSize {
			break
		}
	}

	if finished := snap.Finished(); finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	if ratiosTotal > 0 {
		snap.RatioCoverage = float64(ratiosValid) / float64(ratiosTotal)
	}
	if snap.Summarized > 0 {
		snap.IdentityFailureRate = float64(identityRuns) / float64(snap.Summarized)
	}
	return snap, nil
}
