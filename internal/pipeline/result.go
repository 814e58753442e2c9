package pipeline

import (
	"encoding/json"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/integrity"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/lookup"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/matcher"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/populate"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ratio"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/verify"
)

// StageTiming records how long one analysis stage took.
type StageTiming struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
}

// ExtractionSummary describes the iXBRL extraction.
type ExtractionSummary struct {
	Source             string           `json:"source,omitempty"`
	Kind               ixbrl.SourceKind `json:"kind,omitempty"`
	Facts              int              `json:"facts"`
	PrimaryFacts       int              `json:"primary_facts"`
	Concepts           int              `json:"concepts"`
	Contexts           int              `json:"contexts"`
	PrimaryInstant     string           `json:"primary_instant,omitempty"`
	PrimaryDurationEnd string           `json:"primary_duration_end,omitempty"`
}

// ReconciliationReport is the reconciliation outcome. Only discrepancies
// are listed individually.
type ReconciliationReport struct {
	Summary            integrity.ReconcileSummary       `json:"summary"`
	Discrepancies      []integrity.ReconciliationResult `json:"discrepancies,omitempty"`
	CorrectionsApplied int                              `json:"corrections_applied"`
	CorrectionsSkipped string                           `json:"corrections_skipped,omitempty"`
}

// AnalysisResult is everything one filing analysis produces.
type AnalysisResult struct {
	RunID            string                           `json:"run_id,omitempty"`
	Filing           model.FilingMeta                 `json:"filing"`
	Industry         ratio.Detection                  `json:"industry"`
	Extraction       ExtractionSummary                `json:"extraction"`
	Signs            integrity.SignSummary            `json:"signs"`
	Reconciliation   ReconciliationReport             `json:"reconciliation"`
	Values           lookup.Summary                   `json:"values"`
	Concepts         int                              `json:"concepts"`
	Resolution       *matcher.ResolutionMap           `json:"resolution"`
	Components       model.MatchSet                   `json:"components"`
	Population       populate.Stats                   `json:"population"`
	Verification     verify.Report                    `json:"verification"`
	Identities       []model.IdentityCheck            `json:"identities"`
	Ratios           []model.RatioResult              `json:"ratios"`
	ScaleAnnotations map[string]ratio.ScaleAnnotation `json:"scale_annotations,omitempty"`
	Stages           []StageTiming                    `json:"stages"`
}

// ValidRatios counts ratios with a value.
func (r *AnalysisResult) ValidRatios() int {
	n := 0
	for _, rr := range r.Ratios {
		if rr.Valid {
			n++
		}
	}
	return n
}

// IdentityFailures counts identity checks that ran and failed.
func (r *AnalysisResult) IdentityFailures() int {
	n := 0
	for _, c := range r.Identities {
		if !c.Skipped && !c.Passed {
			n++
		}
	}
	return n
}

// Summary condenses the result for the run store. The full result is
// embedded as Output.
func (r *AnalysisResult) Summary() (*model.RunSummary, error) {
	out, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	matched := 0
	for _, m := range r.Components {
		if m.Matched {
			matched++
		}
	}
	return &model.RunSummary{
		Industry:          r.Industry.Industry,
		FactsExtracted:    r.Extraction.Facts,
		ComponentsMatched: matched,
		ComponentsTotal:   len(r.Components),
		ValuesPopulated:   r.Population.Populated(),
		RatiosValid:       r.ValidRatios(),
		RatiosTotal:       len(r.Ratios),
		IdentityFailures:  r.IdentityFailures(),
		Promotions:        r.Verification.Promotions(),
		Output:            out,
	}, nil
}
