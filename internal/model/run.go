package model

import (
	"encoding/json"
	"time"
)

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run represents a single analysis run over one filing.
type Run struct {
	ID         string      `json:"id"`
	Filing     FilingMeta  `json:"filing"`
	Source     string      `json:"source"`
	SourceHash string      `json:"source_hash,omitempty"`
	Status     RunStatus   `json:"status"`
	Summary    *RunSummary `json:"summary,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// RunSummary is the persisted outcome of a run.
type RunSummary struct {
	Industry          string          `json:"industry"`
	FactsExtracted    int             `json:"facts_extracted"`
	ComponentsMatched int             `json:"components_matched"`
	ComponentsTotal   int             `json:"components_total"`
	ValuesPopulated   int             `json:"values_populated"`
	RatiosValid       int             `json:"ratios_valid"`
	RatiosTotal       int             `json:"ratios_total"`
	IdentityFailures  int             `json:"identity_failures"`
	Promotions        int             `json:"promotions"`
	Output            json.RawMessage `json:"output,omitempty"`
}

// HierarchyNode is a persisted presentation node used to enrich the
// concept index with taxonomy labels.
type HierarchyNode struct {
	Company       string  `json:"company"`
	Concept       string  `json:"concept"`
	Label         string  `json:"label"`
	StandardLabel string  `json:"standard_label"`
	Level         int     `json:"level"`
	ParentID      string  `json:"parent_id"`
	Order         float64 `json:"order"`
}
