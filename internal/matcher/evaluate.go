package matcher

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
)

// Evaluator names, as reported in score breakdowns.
const (
	EvalLabel       = "label"
	EvalLocalName   = "local_name"
	EvalHierarchy   = "hierarchy"
	EvalCalculation = "calculation"
	EvalDefinition  = "definition"
)

// evaluation is the outcome of every evaluator for one candidate.
type evaluation struct {
	breakdown  map[string]int
	exactLocal bool
	exactLabel bool
}

// evaluate runs the evaluators that the component has rules for.
func evaluate(ix *concept.Index, m *concept.Metadata, comp *registry.Component) evaluation {
	r := comp.MatchingRules
	ev := evaluation{breakdown: make(map[string]int)}

	if len(r.LabelRules) > 0 {
		score, exact := scoreLabels(m, r.LabelRules)
		ev.breakdown[EvalLabel] = score
		ev.exactLabel = exact
	}
	if len(r.LocalNameRules) > 0 {
		score, exact := scoreLocalName(m, r.LocalNameRules)
		ev.breakdown[EvalLocalName] = score
		ev.exactLocal = exact
	}
	if len(r.HierarchyRules) > 0 {
		ev.breakdown[EvalHierarchy] = scoreHierarchy(ix, m, r.HierarchyRules)
	}
	if len(r.CalculationRules) > 0 {
		ev.breakdown[EvalCalculation] = scoreCalculation(ix, m, r.CalculationRules)
	}
	if len(r.DefinitionRules) > 0 {
		ev.breakdown[EvalDefinition] = scoreDefinition(m, r.DefinitionRules)
	}
	return ev
}

// labels returns every label text in role order.
func labels(m *concept.Metadata) []string {
	roles := make([]string, 0, len(m.Labels))
	for role := range m.Labels {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if l := m.Labels[role]; l != "" {
			out = append(out, l)
		}
	}
	return out
}

func scoreLabels(m *concept.Metadata, rules []registry.LabelRule) (int, bool) {
	all := labels(m)
	score, exact := 0, false
	for _, rule := range rules {
		if anyMatch(all, rule.Patterns, rule.MatchType, rule.CaseSensitive, true) {
			score += rule.Weight
			if rule.MatchType == registry.MatchExact {
				exact = true
			}
		}
	}
	return score, exact
}

func scoreLocalName(m *concept.Metadata, rules []registry.LocalNameRule) (int, bool) {
	score, exact := 0, false
	for _, rule := range rules {
		if anyMatch([]string{m.LocalName}, rule.Patterns, rule.MatchType, rule.CaseSensitive, false) {
			score += rule.Weight
			if rule.MatchType == registry.MatchExact {
				exact = true
			}
		}
	}
	return score, exact
}

func anyMatch(texts, patterns []string, matchType string, caseSensitive, isLabel bool) bool {
	for _, t := range texts {
		for _, p := range patterns {
			if matchText(t, p, matchType, caseSensitive, isLabel) {
				return true
			}
		}
	}
	return false
}

func scoreHierarchy(ix *concept.Index, m *concept.Metadata, rules []registry.HierarchyRule) int {
	score := 0
	for _, rule := range rules {
		if hierarchyMatches(ix, m, rule) {
			score += rule.Weight
		}
	}
	return score
}

func hierarchyMatches(ix *concept.Index, m *concept.Metadata, rule registry.HierarchyRule) bool {
	switch rule.RuleType {
	case registry.HierarchyParentMatches:
		if m.PresentationParent == "" {
			return false
		}
		if p := ix.Concept(m.PresentationParent); p != nil {
			return wildcard(p.LocalName, rule.Pattern) || wildcard(p.QName, rule.Pattern)
		}
		return wildcard(m.PresentationParent, rule.Pattern) || wildcard(concept.LocalName(m.PresentationParent), rule.Pattern)

	case registry.HierarchyChildOfRoot:
		return m.HasPresentation && m.PresentationLevel == 1

	case registry.HierarchyHasSiblings:
		for _, s := range siblings(ix, m) {
			if wildcard(s.LocalName, rule.Pattern) {
				return true
			}
		}
		return false

	case registry.HierarchyDepthLevel:
		if !m.HasPresentation {
			return false
		}
		switch strings.ToLower(rule.Pattern) {
		case "top":
			return m.PresentationLevel <= 1
		case "bottom":
			return m.PresentationLevel >= 3
		}
		n, err := strconv.Atoi(rule.Pattern)
		return err == nil && m.PresentationLevel == n

	case registry.HierarchyPositionOrdinal:
		if m.PresentationParent == "" {
			return false
		}
		group := ix.FindChildrenOf(m.PresentationParent)
		pos := -1
		for i, c := range group {
			if c.QName == m.QName {
				pos = i
				break
			}
		}
		if pos < 0 {
			return false
		}
		switch strings.ToLower(rule.Pattern) {
		case "first":
			return pos == 0
		case "last":
			return pos == len(group)-1
		}
		n, err := strconv.Atoi(rule.Pattern)
		return err == nil && pos == n-1
	}
	return false
}

// siblings resolves the sibling list, falling back to the parent's
// children when the index never linked them.
func siblings(ix *concept.Index, m *concept.Metadata) []*concept.Metadata {
	var out []*concept.Metadata
	if len(m.Siblings) > 0 {
		for _, q := range m.Siblings {
			if s := ix.Concept(q); s != nil {
				out = append(out, s)
			}
		}
		return out
	}
	if m.PresentationParent == "" {
		return nil
	}
	for _, c := range ix.FindChildrenOf(m.PresentationParent) {
		if c.QName != m.QName {
			out = append(out, c)
		}
	}
	return out
}

func scoreCalculation(ix *concept.Index, m *concept.Metadata, rules []registry.CalculationRule) int {
	score := 0
	for _, rule := range rules {
		if calculationMatches(ix, m, rule) {
			score += rule.Weight
		}
	}
	return score
}

func calculationMatches(ix *concept.Index, m *concept.Metadata, rule registry.CalculationRule) bool {
	switch rule.RuleType {
	case registry.CalcContributesTo:
		for _, p := range m.CalculationParents {
			if linkMatches(ix, p.QName, rule.Pattern) {
				return true
			}
		}
		return false

	case registry.CalcParentOf:
		for _, c := range m.CalculationChildren {
			for _, pat := range rulePatterns(rule) {
				if linkMatches(ix, c.QName, pat) {
					return true
				}
			}
		}
		return false

	case registry.CalcHasChildren:
		matched := make(map[string]bool)
		for _, c := range m.CalculationChildren {
			for _, pat := range rulePatterns(rule) {
				if linkMatches(ix, c.QName, pat) {
					matched[c.QName] = true
					break
				}
			}
		}
		return len(matched) >= rule.MinMatches

	case registry.CalcWeightSign:
		want := strings.ToLower(rule.Pattern)
		for _, p := range m.CalculationParents {
			if (want == "positive" && p.Weight > 0) || (want == "negative" && p.Weight < 0) {
				return true
			}
		}
		return false
	}
	return false
}

func rulePatterns(rule registry.CalculationRule) []string {
	if len(rule.Patterns) > 0 {
		return rule.Patterns
	}
	if rule.Pattern != "" {
		return []string{rule.Pattern}
	}
	return nil
}

func linkMatches(ix *concept.Index, qname, pattern string) bool {
	local := concept.LocalName(qname)
	if c := ix.Concept(qname); c != nil {
		local = c.LocalName
	}
	return wildcard(local, pattern) || wildcard(qname, pattern)
}

func scoreDefinition(m *concept.Metadata, rules []registry.DefinitionRule) int {
	text := strings.ToLower(m.Definition + " " + m.Label(concept.LabelDocumentation))
	score := 0
	for _, rule := range rules {
		hits := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				hits++
			}
		}
		if (rule.AllRequired && hits == len(rule.Keywords)) || (!rule.AllRequired && hits > 0) {
			score += rule.Weight
		}
	}
	return score
}
