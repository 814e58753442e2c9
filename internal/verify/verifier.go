// Package verify checks matched components against name qualifiers and
// cross-component magnitude rules, promoting alternatives for matches that
// fail.
package verify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/matcher"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/populate"
)

// State is the verification outcome of one component.
type State string

const (
	StateVerified   State = "verified"
	StateFlagged    State = "flagged"
	StatePromoted   State = "promoted"
	StateUnresolved State = "unresolved"
)

// Check names the rule family behind a flag.
const (
	CheckQualifier    = "qualifier"
	CheckPlausibility = "plausibility"
	CheckRecheck      = "recheck"
	CheckSign         = "sign"
)

// Correction sources.
const (
	SourceAlternative = "alternative"
	SourceFallback    = "fallback"
)

// Flag is one failed check.
type Flag struct {
	Component string   `json:"component"`
	Concept   string   `json:"concept"`
	Check     string   `json:"check"`
	Reasons   []string `json:"reasons"`
}

// Correction records one promotion.
type Correction struct {
	Component  string   `json:"component"`
	OldConcept string   `json:"old_concept"`
	OldValue   *float64 `json:"old_value"`
	NewConcept string   `json:"new_concept"`
	NewValue   float64  `json:"new_value"`
	Source     string   `json:"source"`
}

// Report is the outcome of one verification run. Notes are sign
// warnings that never change a match. Recomputed lists the composites
// re-evaluated after promotions.
type Report struct {
	States      map[string]State `json:"states"`
	Flags       []Flag           `json:"flags,omitempty"`
	Corrections []Correction     `json:"corrections,omitempty"`
	Recheck     []Flag           `json:"recheck,omitempty"`
	Notes       []Flag           `json:"notes,omitempty"`
	Recomputed  []string         `json:"recomputed,omitempty"`
}

// Promotions returns the number of corrections applied.
func (r Report) Promotions() int { return len(r.Corrections) }

// ValueSource resolves the primary value of a concept.
type ValueSource interface {
	Get(name string) (float64, bool)
}

// Options tune the verifier.
type Options struct {
	// Threshold is the highest confidence that still gets plausibility
	// checks.
	Threshold          float64
	MaxAlternatives    int
	FallbackCap        int
	FallbackConfidence float64
}

// DefaultOptions returns the standard verifier settings.
func DefaultOptions() Options {
	return Options{
		Threshold:          55,
		MaxAlternatives:    5,
		FallbackCap:        10,
		FallbackConfidence: 50,
	}
}

// Verifier runs post-match verification.
type Verifier struct {
	opts Options
}

// New creates a verifier. Zero option fields take their defaults.
func New(opts Options) *Verifier {
	def := DefaultOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.MaxAlternatives <= 0 {
		opts.MaxAlternatives = def.MaxAlternatives
	}
	if opts.FallbackCap <= 0 {
		opts.FallbackCap = def.FallbackCap
	}
	if opts.FallbackConfidence <= 0 {
		opts.FallbackConfidence = def.FallbackConfidence
	}
	return &Verifier{opts: opts}
}

// Verify checks every matched atomic component in place. Flagged matches
// are replaced by the first alternative that passes every check; the
// others keep their match and stay flagged.
func (v *Verifier) Verify(matches model.MatchSet, rm *matcher.ResolutionMap, ix *concept.Index, values ValueSource) Report {
	rep := Report{States: make(map[string]State)}
	current := matches.Values()

	var flagged []*model.ComponentMatch
	for _, m := range matches {
		if !m.Matched || m.IsComposite() || m.MatchedConcept == "" {
			continue
		}
		if m.Value != nil {
			if note := signNote(m.ComponentName, *m.Value); note != "" {
				rep.Notes = append(rep.Notes, Flag{
					Component: m.ComponentName,
					Concept:   m.MatchedConcept,
					Check:     CheckSign,
					Reasons:   []string{note},
				})
			}
		}
		if flag, bad := v.check(m, current); bad {
			rep.Flags = append(rep.Flags, flag)
			rep.States[m.ComponentName] = StateFlagged
			flagged = append(flagged, m)
			zap.L().Info("verify: match flagged",
				zap.String("component", m.ComponentName),
				zap.String("concept", m.MatchedConcept),
				zap.String("check", flag.Check),
				zap.Strings("reasons", flag.Reasons),
			)
			continue
		}
		rep.States[m.ComponentName] = StateVerified
	}
	if len(flagged) == 0 {
		zap.L().Debug("verify: all matches verified")
		return rep
	}

	promoted := make(map[string]bool)
	for _, m := range flagged {
		corr, ok := v.promote(m, rm, ix, values, current)
		if !ok {
			rep.States[m.ComponentName] = StateUnresolved
			m.Confidence = max(0, m.Confidence-unresolvedPenalty)
			zap.L().Info("verify: no valid alternative, keeping original",
				zap.String("component", m.ComponentName),
				zap.String("concept", m.MatchedConcept),
				zap.Float64("confidence", m.Confidence),
			)
			continue
		}
		rep.Corrections = append(rep.Corrections, corr)
		rep.States[m.ComponentName] = StatePromoted
		promoted[m.ComponentName] = true
		current[m.ComponentName] = m.Value
	}

	if len(promoted) > 0 {
		names := make([]string, 0, len(promoted))
		for _, m := range matches {
			if promoted[m.ComponentName] {
				names = append(names, m.ComponentName)
			}
		}
		rep.Recomputed = populate.NewPopulator(ix).Recompute(matches, names)
		current = matches.Values()
		rep.Recheck = v.recheck(matches, promoted, current)
	}

	zap.L().Info("verify: complete",
		zap.Int("flagged", len(flagged)),
		zap.Int("promoted", len(rep.Corrections)),
		zap.Int("recheck_failures", len(rep.Recheck)),
		zap.Int("recomputed", len(rep.Recomputed)),
	)
	return rep
}

// check runs the qualifier check, then plausibility for low-confidence
// matches with a value.
func (v *Verifier) check(m *model.ComponentMatch, current map[string]*float64) (Flag, bool) {
	flag := Flag{Component: m.ComponentName, Concept: m.MatchedConcept}

	q := qualify(m.ComponentName, m.MatchedConcept, m.Confidence)
	if !q.ok {
		flag.Check = CheckQualifier
		flag.Reasons = []string{q.reason}
		return flag, true
	}

	conf := m.Confidence - q.penalty
	if m.Value == nil || m.Confidence >= 100 || conf > v.opts.Threshold {
		return flag, false
	}
	if failures := plausibility(m.ComponentName, *m.Value, current); len(failures) > 0 {
		flag.Check = CheckPlausibility
		flag.Reasons = failures
		return flag, true
	}
	return flag, false
}

// promote tries matcher alternatives, then the fallback scan. The match is
// updated in place when a candidate passes.
func (v *Verifier) promote(m *model.ComponentMatch, rm *matcher.ResolutionMap, ix *concept.Index, values ValueSource, current map[string]*float64) (Correction, bool) {
	old := m.MatchedConcept
	tried := map[string]bool{old: true}

	n := 0
	for _, alt := range rm.Alternatives(m.ComponentName) {
		if n >= v.opts.MaxAlternatives {
			break
		}
		if tried[alt.Concept] {
			continue
		}
		tried[alt.Concept] = true
		n++
		if val, ok := v.accept(m.ComponentName, alt.Concept, float64(alt.Score), values, current); ok {
			return v.apply(m, ix, alt.Concept, float64(alt.Score), val, SourceAlternative), true
		}
	}

	n = 0
	for _, cand := range fallbackCandidates(ix, m.ComponentName) {
		if n >= v.opts.FallbackCap {
			break
		}
		if tried[cand] {
			continue
		}
		tried[cand] = true
		n++
		if val, ok := v.accept(m.ComponentName, cand, v.opts.FallbackConfidence, values, current); ok {
			return v.apply(m, ix, cand, v.opts.FallbackConfidence, val, SourceFallback), true
		}
	}
	return Correction{}, false
}

// accept reports whether a candidate passes the qualifier check, has a
// value and keeps every magnitude rule with that value substituted.
func (v *Verifier) accept(component, qname string, confidence float64, values ValueSource, current map[string]*float64) (float64, bool) {
	if !qualify(component, qname, confidence).ok {
		return 0, false
	}
	val, ok := values.Get(qname)
	if !ok {
		return 0, false
	}
	trial := make(map[string]*float64, len(current))
	for k, x := range current {
		trial[k] = x
	}
	trial[component] = &val
	if len(plausibility(component, val, trial)) > 0 {
		return 0, false
	}
	return val, true
}

func (v *Verifier) apply(m *model.ComponentMatch, ix *concept.Index, qname string, confidence, val float64, source string) Correction {
	corr := Correction{
		Component:  m.ComponentName,
		OldConcept: m.MatchedConcept,
		OldValue:   m.Value,
		NewConcept: qname,
		NewValue:   val,
		Source:     source,
	}
	m.MatchedConcept = qname
	m.Confidence = confidence
	m.Value = model.Float(val)
	if l := matcher.ConceptLabel(ix, qname); l != "" {
		m.Label = l
	}
	zap.L().Info("verify: promoted alternative",
		zap.String("component", m.ComponentName),
		zap.String("from", corr.OldConcept),
		zap.String("to", qname),
		zap.Float64("value", val),
		zap.String("source", source),
	)
	return corr
}

// fallbackCandidates scans the index with the component's wildcard
// patterns, in pattern order without duplicates.
func fallbackCandidates(ix *concept.Index, component string) []string {
	if ix == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range FallbackPatterns[component] {
		for _, m := range ix.FindByLocalName(p) {
			if m.Abstract || seen[m.QName] || strings.Contains(strings.ToLower(m.LocalName), "textblock") {
				continue
			}
			seen[m.QName] = true
			out = append(out, m.QName)
		}
	}
	return out
}

// recheck re-runs plausibility for components that were not promoted.
// Failures are reported only.
func (v *Verifier) recheck(matches model.MatchSet, promoted map[string]bool, current map[string]*float64) []Flag {
	var out []Flag
	for _, m := range matches {
		if !m.Matched || m.Value == nil || m.IsComposite() || promoted[m.ComponentName] {
			continue
		}
		if failures := plausibility(m.ComponentName, *m.Value, current); len(failures) > 0 {
			out = append(out, Flag{
				Component: m.ComponentName,
				Concept:   m.MatchedConcept,
				Check:     CheckRecheck,
				Reasons:   failures,
			})
			zap.L().Warn("verify: recheck failed",
				zap.String("component", m.ComponentName),
				zap.Strings("reasons", failures),
			)
		}
	}
	return out
}
