package matcher

// Status is the resolution outcome of one component.
type Status string

const (
	StatusMatched           Status = "matched"
	StatusNoMatch           Status = "no_match"
	StatusCompositeResolved Status = "composite_resolved"
	StatusCompositeFailed   Status = "composite_failed"
)

// Confidence grades a score against the component's thresholds.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Failure reasons reported in diagnostics.
const (
	ReasonNoCandidates   = "NO_CANDIDATES"
	ReasonAllRejected    = "ALL_REJECTED"
	ReasonBelowThreshold = "BELOW_THRESHOLD"
)

// CompositeScore is the score given to a resolved formula.
const CompositeScore = 100

// ScoredMatch is one candidate concept with its score.
type ScoredMatch struct {
	Concept    string         `json:"concept"`
	Label      string         `json:"label,omitempty"`
	Score      int            `json:"score"`
	Confidence Confidence     `json:"confidence"`
	Breakdown  map[string]int `json:"breakdown,omitempty"`
	ExactLocal bool           `json:"exact_local,omitempty"`
	ExactLabel bool           `json:"exact_label,omitempty"`

	level    int
	order    float64
	children int
}

// MatchResult is the resolution of one component.
type MatchResult struct {
	ComponentID  string        `json:"component_id"`
	Status       Status        `json:"status"`
	Concept      string        `json:"concept,omitempty"`
	Score        int           `json:"score"`
	Confidence   Confidence    `json:"confidence"`
	Alternatives []ScoredMatch `json:"alternatives,omitempty"`
	Tiebreaker   string        `json:"tiebreaker,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// Resolved reports whether the component has a concept or formula.
func (r *MatchResult) Resolved() bool {
	return r != nil && (r.Status == StatusMatched || r.Status == StatusCompositeResolved)
}

// Diagnostics records how one component was searched.
type Diagnostics struct {
	ComponentID     string            `json:"component_id"`
	SearchPatterns  []string          `json:"search_patterns,omitempty"`
	Filters         map[string]string `json:"filters,omitempty"`
	CandidatesFound int               `json:"candidates_found"`
	Rejections      int               `json:"rejections"`
	BelowThreshold  int               `json:"below_threshold"`
	Passed          int               `json:"passed"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	MatchedConcept  string            `json:"matched_concept,omitempty"`
	MatchedScore    int               `json:"matched_score,omitempty"`
	NearMisses      []ScoredMatch     `json:"near_misses,omitempty"`
}

// ResolutionMap is the outcome of resolving every requested component of
// one filing.
type ResolutionMap struct {
	FilingID    string                  `json:"filing_id"`
	Matches     map[string]*MatchResult `json:"matches"`
	Resolved    []string                `json:"resolved"`
	Composites  []string                `json:"composites"`
	Unresolved  []string                `json:"unresolved"`
	Diagnostics map[string]*Diagnostics `json:"diagnostics"`
}

// Get returns the result for a component, or nil.
func (rm *ResolutionMap) Get(id string) *MatchResult {
	if rm == nil {
		return nil
	}
	return rm.Matches[id]
}

// Alternatives returns the ranked alternatives of a component.
func (rm *ResolutionMap) Alternatives(id string) []ScoredMatch {
	if r := rm.Get(id); r != nil {
		return r.Alternatives
	}
	return nil
}
