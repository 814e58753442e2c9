// Package matcher resolves abstract financial components to the concepts a
// filer actually used, scoring candidates with rule-based evaluators.
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
)

// DefaultMaxCandidates caps the concepts evaluated per component.
const DefaultMaxCandidates = 100

// Coordinator resolves components against one concept index at a time.
// It holds no per-filing state and is safe for concurrent use.
type Coordinator struct {
	reg           *registry.Registry
	maxCandidates int
}

// NewCoordinator creates a coordinator over a loaded registry.
func NewCoordinator(reg *registry.Registry) *Coordinator {
	return &Coordinator{reg: reg, maxCandidates: DefaultMaxCandidates}
}

// Registry returns the component definitions in use.
func (c *Coordinator) Registry() *registry.Registry { return c.reg }

// ResolveAll resolves the required components, plus any component their
// formulas reference. An empty required list resolves every component.
func (c *Coordinator) ResolveAll(ix *concept.Index, filingID string, required []string) *ResolutionMap {
	comps := c.reg.Select(c.expand(required))
	rm := &ResolutionMap{
		FilingID:    filingID,
		Matches:     make(map[string]*MatchResult, len(comps)),
		Diagnostics: make(map[string]*Diagnostics, len(comps)),
	}

	for _, comp := range comps {
		if !comp.HasRules() {
			continue
		}
		res, diag := c.resolveAtomic(ix, comp)
		rm.Matches[comp.ID] = res
		rm.Diagnostics[comp.ID] = diag
	}

	c.resolveComposites(rm, comps)

	for _, comp := range comps {
		res := rm.Matches[comp.ID]
		switch {
		case res == nil:
			rm.Unresolved = append(rm.Unresolved, comp.ID)
		case res.Status == StatusCompositeResolved:
			rm.Composites = append(rm.Composites, comp.ID)
		case res.Resolved():
			rm.Resolved = append(rm.Resolved, comp.ID)
		default:
			rm.Unresolved = append(rm.Unresolved, comp.ID)
		}
	}

	zap.L().Info("matcher: resolution complete",
		zap.String("filing_id", filingID),
		zap.Int("components", len(comps)),
		zap.Int("resolved", len(rm.Resolved)),
		zap.Int("composites", len(rm.Composites)),
		zap.Int("unresolved", len(rm.Unresolved)),
	)
	return rm
}

// expand adds formula dependencies to the requested ids.
func (c *Coordinator) expand(required []string) []string {
	if len(required) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		comp := c.reg.Component(id)
		if comp == nil {
			return
		}
		for _, dep := range comp.Composition.Components {
			visit(dep)
		}
		for _, alt := range comp.Composition.Alternatives {
			for _, dep := range alt.Components {
				visit(dep)
			}
		}
	}
	for _, id := range required {
		visit(id)
	}
	return out
}

func (c *Coordinator) resolveAtomic(ix *concept.Index, comp *registry.Component) (*MatchResult, *Diagnostics) {
	ch := comp.Characteristics
	q := concept.CandidateQuery{
		LabelPatterns:   comp.LabelPatterns(),
		LocalPatterns:   literalLocalPatterns(comp),
		Balance:         ch.BalanceType,
		Period:          ch.PeriodType,
		ExcludeAbstract: !ch.IsAbstract,
		Max:             c.maxCandidates,
	}
	diag := &Diagnostics{
		ComponentID:    comp.ID,
		SearchPatterns: append(append([]string(nil), q.LabelPatterns...), q.LocalPatterns...),
		Filters: map[string]string{
			"balance_type":     ch.BalanceType,
			"period_type":      ch.PeriodType,
			"exclude_abstract": fmt.Sprint(q.ExcludeAbstract),
		},
	}
	res := &MatchResult{
		ComponentID: comp.ID,
		Status:      StatusNoMatch,
		Confidence:  ConfidenceNone,
		Tiebreaker:  comp.Scoring.Tiebreaker,
	}

	var candidates []*concept.Metadata
	for _, m := range ix.Candidates(q) {
		if !excludedLocalName(m.LocalName) {
			candidates = append(candidates, m)
		}
	}
	diag.CandidatesFound = len(candidates)
	if len(candidates) == 0 {
		diag.FailureReason = ReasonNoCandidates
		res.Reason = ReasonNoCandidates
		zap.L().Debug("matcher: no candidates", zap.String("component", comp.ID))
		return res, diag
	}

	var passed, below []ScoredMatch
	for _, m := range candidates {
		if rejected(m, comp.Scoring.RejectIf) {
			diag.Rejections++
			continue
		}
		ev := evaluate(ix, m, comp)
		total, _ := aggregate(ev, comp.Scoring.MinScore)
		sm := ScoredMatch{
			Concept:    m.QName,
			Label:      m.DisplayLabel(),
			Score:      total,
			Confidence: confidence(total, ev, comp.Scoring.ConfidenceLevels),
			Breakdown:  ev.breakdown,
			ExactLocal: ev.exactLocal,
			ExactLabel: ev.exactLabel,
			level:      m.PresentationLevel,
			order:      m.PresentationOrder,
			children:   len(m.CalculationChildren),
		}
		if total >= comp.Scoring.MinScore {
			passed = append(passed, sm)
		} else {
			below = append(below, sm)
		}
	}
	diag.Passed = len(passed)
	diag.BelowThreshold = len(below)

	if len(passed) == 0 {
		reason := ReasonBelowThreshold
		if diag.Rejections == diag.CandidatesFound {
			reason = ReasonAllRejected
		}
		diag.FailureReason = reason
		res.Reason = reason
		sortScored(below)
		if len(below) > 3 {
			below = below[:3]
		}
		diag.NearMisses = below
		for _, nm := range below {
			zap.L().Debug("matcher: near miss",
				zap.String("component", comp.ID),
				zap.String("concept", nm.Concept),
				zap.Int("score", nm.Score),
				zap.Int("min_score", comp.Scoring.MinScore),
			)
		}
		return res, diag
	}

	sortScored(passed)
	tied := 1
	for tied < len(passed) && passed[tied].Score == passed[0].Score {
		tied++
	}

	var best ScoredMatch
	if tied > 1 {
		group := passed[:tied]
		i := tiebreak(comp.Scoring.Tiebreaker, group)
		best = group[i]
		for j, m := range group {
			if j != i {
				res.Alternatives = append(res.Alternatives, m)
			}
		}
	} else {
		best = passed[0]
		end := len(passed)
		if end > 5 {
			end = 5
		}
		res.Alternatives = append(res.Alternatives, passed[1:end]...)
	}

	res.Status = StatusMatched
	res.Concept = best.Concept
	res.Score = best.Score
	res.Confidence = best.Confidence
	diag.MatchedConcept = best.Concept
	diag.MatchedScore = best.Score

	zap.L().Debug("matcher: matched",
		zap.String("component", comp.ID),
		zap.String("concept", best.Concept),
		zap.Int("score", best.Score),
		zap.String("confidence", string(best.Confidence)),
		zap.Int("alternatives", len(res.Alternatives)),
	)
	return res, diag
}

// resolveComposites resolves formula components whose inputs are known,
// repeating until no further composite resolves.
func (c *Coordinator) resolveComposites(rm *ResolutionMap, comps []*registry.Component) {
	for progress := true; progress; {
		progress = false
		for _, comp := range comps {
			if comp.Formula() == "" || rm.Matches[comp.ID].Resolved() {
				continue
			}
			if formula, ok := pickFormula(rm, comp.Composition); ok {
				rm.Matches[comp.ID] = &MatchResult{
					ComponentID: comp.ID,
					Status:      StatusCompositeResolved,
					Concept:     model.CompositePrefix + formula,
					Score:       CompositeScore,
					Confidence:  ConfidenceHigh,
				}
				zap.L().Debug("matcher: composite resolved",
					zap.String("component", comp.ID),
					zap.String("formula", formula),
				)
				progress = true
			}
		}
	}

	for _, comp := range comps {
		if comp.Formula() == "" || rm.Matches[comp.ID].Resolved() {
			continue
		}
		reason := "Missing components: " + strings.Join(missing(rm, comp.Composition.Components), ", ")
		if prev := rm.Matches[comp.ID]; prev != nil && prev.Reason != "" {
			reason = prev.Reason + "; " + reason
		}
		rm.Matches[comp.ID] = &MatchResult{
			ComponentID: comp.ID,
			Status:      StatusCompositeFailed,
			Confidence:  ConfidenceNone,
			Reason:      reason,
		}
	}
}

func pickFormula(rm *ResolutionMap, comp registry.Composition) (string, bool) {
	if len(missing(rm, comp.Components)) == 0 {
		return comp.Formula, true
	}
	for _, alt := range comp.Alternatives {
		if len(missing(rm, alt.Components)) == 0 {
			return alt.Formula, true
		}
	}
	return "", false
}

func missing(rm *ResolutionMap, ids []string) []string {
	var out []string
	for _, id := range ids {
		if !rm.Matches[id].Resolved() {
			out = append(out, id)
		}
	}
	return out
}

func literalLocalPatterns(comp *registry.Component) []string {
	var out []string
	for _, r := range comp.MatchingRules.LocalNameRules {
		if r.MatchType != registry.MatchRegex {
			out = append(out, r.Patterns...)
		}
	}
	return out
}

func rejected(m *concept.Metadata, rules []registry.Rejection) bool {
	for _, rj := range rules {
		switch {
		case rj.Pattern == "abstract=true":
			if m.Abstract {
				return true
			}
		case strings.HasPrefix(rj.Pattern, "label~"):
			kw := strings.ToLower(strings.TrimPrefix(rj.Pattern, "label~"))
			for _, l := range m.Labels {
				if strings.Contains(strings.ToLower(l), kw) {
					return true
				}
			}
		case strings.HasPrefix(rj.Pattern, "name~"):
			kw := strings.ToLower(strings.TrimPrefix(rj.Pattern, "name~"))
			if strings.Contains(strings.ToLower(m.LocalName), kw) {
				return true
			}
		}
	}
	return false
}

func sortScored(list []ScoredMatch) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Score > list[j].Score })
}

// BuildMatches converts a resolution into the component matches the rest
// of the pipeline mutates, one per requested component.
func BuildMatches(rm *ResolutionMap, ix *concept.Index, comps []*registry.Component) model.MatchSet {
	out := make(model.MatchSet, 0, len(comps))
	for _, comp := range comps {
		m := &model.ComponentMatch{
			ComponentName:   comp.ID,
			FallbackFormula: comp.Formula(),
		}
		if res := rm.Get(comp.ID); res.Resolved() {
			m.Matched = true
			m.MatchedConcept = res.Concept
			m.Confidence = float64(res.Score)
			if m.IsComposite() {
				m.Label = m.Formula()
			} else {
				m.Label = ConceptLabel(ix, res.Concept)
			}
		}
		out = append(out, m)
	}
	return out
}

// ConceptLabel returns the standard label of a concept, falling back to
// the taxonomy label.
func ConceptLabel(ix *concept.Index, qname string) string {
	meta := ix.Concept(qname)
	if meta == nil {
		return ""
	}
	if l := meta.Label(concept.LabelStandard); l != "" {
		return l
	}
	return meta.Label(concept.LabelTaxonomy)
}
