// Package store persists analysis runs and the presentation hierarchy
// nodes used to enrich concept indexes.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Company string          `json:"company,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// limit returns the page size, defaulting to 100.
func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, filing model.FilingMeta, source, sourceHash string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	LatestBySource(ctx context.Context, source string) (*model.Run, error)

	// Hierarchy
	HierarchyNodes(ctx context.Context, company string) ([]model.HierarchyNode, error)
	SaveHierarchyNodes(ctx context.Context, company string, nodes []model.HierarchyNode) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
