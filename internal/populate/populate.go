// Package populate fills component values from the fact lookup in four
// fixed passes: direct, alternatives, composites, fallback formulas.
package populate

import (
	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/matcher"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

// ValueSource resolves the primary value of a concept.
type ValueSource interface {
	Get(name string) (float64, bool)
}

// Stats counts what each pass populated.
type Stats struct {
	Direct       int      `json:"direct"`
	Alternatives int      `json:"alternatives"`
	Composites   int      `json:"composites"`
	Fallbacks    int      `json:"fallbacks"`
	Missing      []string `json:"missing,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// Populated is the number of values set by any pass.
func (s Stats) Populated() int {
	return s.Direct + s.Alternatives + s.Composites + s.Fallbacks
}

// Populator sets ComponentMatch values.
type Populator struct {
	index *concept.Index
}

// NewPopulator creates a populator. The index supplies labels for adopted
// alternatives and may be nil.
func NewPopulator(ix *concept.Index) *Populator {
	return &Populator{index: ix}
}

// Populate runs the four passes over matches in place.
func (p *Populator) Populate(matches model.MatchSet, values ValueSource, rm *matcher.ResolutionMap) Stats {
	var st Stats

	// Pass 1: direct lookup.
	for _, m := range matches {
		if !m.Matched || m.IsComposite() || m.MatchedConcept == "" {
			continue
		}
		if v, ok := values.Get(m.MatchedConcept); ok {
			m.Value = model.Float(v)
			st.Direct++
		}
	}

	// Pass 2: first alternative with a value.
	for _, m := range matches {
		if !m.Matched || m.IsComposite() || m.Value != nil {
			continue
		}
		for _, alt := range rm.Alternatives(m.ComponentName) {
			if alt.Concept == m.MatchedConcept {
				continue
			}
			v, ok := values.Get(alt.Concept)
			if !ok {
				continue
			}
			zap.L().Info("populate: adopted alternative",
				zap.String("component", m.ComponentName),
				zap.String("from", m.MatchedConcept),
				zap.String("to", alt.Concept),
				zap.Int("score", alt.Score),
			)
			m.MatchedConcept = alt.Concept
			m.Confidence = float64(alt.Score)
			m.Label = p.label(alt)
			m.Value = model.Float(v)
			st.Alternatives++
			break
		}
	}

	// Pass 3: composite formulas, repeated while composites feed composites.
	for progress := true; progress; {
		progress = false
		for _, m := range matches {
			if !m.IsComposite() || m.Value != nil {
				continue
			}
			v := p.eval(m.ComponentName, m.Formula(), matches, &st)
			if v != nil {
				m.Value = v
				st.Composites++
				progress = true
			}
		}
	}

	// Pass 4: fallback formulas for atomic matches still empty.
	for _, m := range matches {
		if !m.Matched || m.IsComposite() || m.FallbackFormula == "" || m.Value != nil {
			continue
		}
		if v := p.eval(m.ComponentName, m.FallbackFormula, matches, &st); v != nil {
			m.Value = v
			st.Fallbacks++
			zap.L().Info("populate: fallback formula applied",
				zap.String("component", m.ComponentName),
				zap.String("formula", m.FallbackFormula),
				zap.Float64("value", *v),
			)
		}
	}

	for _, m := range matches {
		if m.Matched && m.Value == nil {
			st.Missing = append(st.Missing, m.ComponentName)
		}
	}

	zap.L().Debug("populate: complete",
		zap.Int("direct", st.Direct),
		zap.Int("alternatives", st.Alternatives),
		zap.Int("composites", st.Composites),
		zap.Int("fallbacks", st.Fallbacks),
		zap.Int("missing", len(st.Missing)),
	)
	return st
}

// Recompute clears and re-evaluates every composite that reads a changed
// component, directly or through another composite. Returns the names of
// the composites it re-evaluated, in match order.
func (p *Populator) Recompute(matches model.MatchSet, changed []string) []string {
	dirty := make(map[string]bool, len(changed))
	for _, c := range changed {
		dirty[c] = true
	}
	for progress := true; progress; {
		progress = false
		for _, m := range matches {
			if !m.IsComposite() || dirty[m.ComponentName] {
				continue
			}
			for _, ref := range References(m.Formula()) {
				if dirty[ref] {
					dirty[m.ComponentName] = true
					progress = true
					break
				}
			}
		}
	}

	var stale []*model.ComponentMatch
	for _, m := range matches {
		if m.IsComposite() && dirty[m.ComponentName] {
			m.Value = nil
			stale = append(stale, m)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	var st Stats
	for progress := true; progress; {
		progress = false
		for _, m := range stale {
			if m.Value != nil {
				continue
			}
			if v := p.eval(m.ComponentName, m.Formula(), matches, &st); v != nil {
				m.Value = v
				progress = true
			}
		}
	}

	out := make([]string, len(stale))
	for i, m := range stale {
		out[i] = m.ComponentName
		zap.L().Info("populate: composite recomputed",
			zap.String("component", m.ComponentName),
			zap.Bool("has_value", m.Value != nil),
		)
	}
	return out
}

func (p *Populator) eval(component, formula string, matches model.MatchSet, st *Stats) *float64 {
	v, err := Evaluate(formula, matches.Values())
	if err != nil {
		zap.L().Warn("populate: formula evaluation failed",
			zap.String("component", component),
			zap.String("formula", formula),
			zap.Error(err),
		)
		st.Errors = appendOnce(st.Errors, component+": "+err.Error())
		return nil
	}
	return v
}

func (p *Populator) label(alt matcher.ScoredMatch) string {
	if l := matcher.ConceptLabel(p.index, alt.Concept); l != "" {
		return l
	}
	return alt.Label
}

func appendOnce(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
