package model

import "strings"

// CompositePrefix marks a matched concept that is computed from other
// components rather than reported directly.
const CompositePrefix = "COMPOSITE:"

// ComponentMatch is the resolution state of one abstract component.
//
// The matcher sets Matched, MatchedConcept and Confidence. The verifier may
// replace MatchedConcept, Confidence and Value during promotion, and the
// populator sets Value.
type ComponentMatch struct {
	ComponentName   string   `json:"component_name"`
	Matched         bool     `json:"matched"`
	MatchedConcept  string   `json:"matched_concept,omitempty"`
	Confidence      float64  `json:"confidence"`
	Value           *float64 `json:"value"`
	Label           string   `json:"label,omitempty"`
	FallbackFormula string   `json:"fallback_formula,omitempty"`
}

// IsComposite reports whether the match is a formula over other components.
func (m *ComponentMatch) IsComposite() bool {
	return strings.HasPrefix(m.MatchedConcept, CompositePrefix)
}

// Formula returns the composite formula, or "" for atomic matches.
func (m *ComponentMatch) Formula() string {
	if !m.IsComposite() {
		return ""
	}
	return strings.TrimPrefix(m.MatchedConcept, CompositePrefix)
}

// MatchSet indexes component matches by name while preserving order.
type MatchSet []*ComponentMatch

// ByName returns the match for a component, or nil.
func (s MatchSet) ByName(name string) *ComponentMatch {
	for _, m := range s {
		if m.ComponentName == name {
			return m
		}
	}
	return nil
}

// Lookup builds a name-keyed map over the set.
func (s MatchSet) Lookup() map[string]*ComponentMatch {
	out := make(map[string]*ComponentMatch, len(s))
	for _, m := range s {
		out[m.ComponentName] = m
	}
	return out
}

// Values returns the populated values of matched components. Components
// without a value map to nil.
func (s MatchSet) Values() map[string]*float64 {
	out := make(map[string]*float64, len(s))
	for _, m := range s {
		if !m.Matched {
			continue
		}
		out[m.ComponentName] = m.Value
	}
	return out
}

// Clone deep-copies the set so callers can compare pipeline passes.
func (s MatchSet) Clone() MatchSet {
	out := make(MatchSet, len(s))
	for i, m := range s {
		c := *m
		if m.Value != nil {
			c.Value = Float(*m.Value)
		}
		out[i] = &c
	}
	return out
}
