package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
)

func TestAggregateExactLocalFloor(t *testing.T) {
	t.Parallel()

	ev := evaluation{breakdown: map[string]int{EvalLabel: 0, EvalLocalName: 10}, exactLocal: true}
	total, n := aggregate(ev, 15)
	assert.Equal(t, 15, total)
	assert.Equal(t, 1, n)

	ev.exactLocal = false
	total, _ = aggregate(ev, 15)
	assert.Equal(t, 10, total)
}

func TestConfidence(t *testing.T) {
	t.Parallel()

	cl := registry.ConfidenceLevels{High: 30, Medium: 22, Low: 15}
	tests := []struct {
		name      string
		score     int
		breakdown map[string]int
		want      Confidence
	}{
		{"high", 33, map[string]int{EvalLabel: 15, EvalLocalName: 10, EvalCalculation: 8}, ConfidenceHigh},
		{"medium", 25, map[string]int{EvalLabel: 15, EvalLocalName: 10}, ConfidenceMedium},
		{"none", 10, map[string]int{EvalLocalName: 10}, ConfidenceNone},
		{"label only demotes", 30, map[string]int{EvalLabel: 30}, ConfidenceMedium},
		{"label only floor", 15, map[string]int{EvalLabel: 15}, ConfidenceLow},
		{"four evaluators boost", 23, map[string]int{EvalLabel: 10, EvalLocalName: 5, EvalHierarchy: 3, EvalDefinition: 5}, ConfidenceHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := confidence(tt.score, evaluation{breakdown: tt.breakdown}, cl)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTiebreak(t *testing.T) {
	t.Parallel()

	tied := []ScoredMatch{
		{Concept: "a", level: 2, order: 3, children: 1},
		{Concept: "b", level: 1, order: 5, children: 4, ExactLabel: true},
		{Concept: "c", level: 1, order: 1, children: 4},
	}
	assert.Equal(t, 1, tiebreak(registry.TieHighestInHierarchy, tied))
	assert.Equal(t, 1, tiebreak(registry.TieMostChildren, tied))
	assert.Equal(t, 1, tiebreak(registry.TieExactLabelMatch, tied))
	assert.Equal(t, 2, tiebreak(registry.TieFirstInPresentation, tied))
	assert.Equal(t, 0, tiebreak("coin_flip", tied))
	assert.Equal(t, 0, tiebreak(registry.TieExactLabelMatch, tied[2:]))
}

func TestHierarchyRules(t *testing.T) {
	t.Parallel()

	ix := testIndex()
	cash := ix.Concept("us-gaap:CashAndCashEquivalentsAtCarryingValue")
	other := ix.Concept("us-gaap:OtherAssetsCurrent")
	ca := ix.Concept("us-gaap:AssetsCurrent")

	rule := func(kind, pattern string) registry.HierarchyRule {
		return registry.HierarchyRule{RuleType: kind, Pattern: pattern, Weight: 1}
	}

	assert.True(t, hierarchyMatches(ix, cash, rule(registry.HierarchyParentMatches, "*AssetsCurrent")))
	assert.False(t, hierarchyMatches(ix, cash, rule(registry.HierarchyParentMatches, "Liabilities*")))
	assert.True(t, hierarchyMatches(ix, ca, rule(registry.HierarchyChildOfRoot, "")))
	assert.False(t, hierarchyMatches(ix, cash, rule(registry.HierarchyChildOfRoot, "")))
	assert.True(t, hierarchyMatches(ix, cash, rule(registry.HierarchyHasSiblings, "*Receivable*")))
	assert.False(t, hierarchyMatches(ix, cash, rule(registry.HierarchyHasSiblings, "*Cash*")))
	assert.True(t, hierarchyMatches(ix, cash, rule(registry.HierarchyDepthLevel, "2")))
	assert.True(t, hierarchyMatches(ix, ca, rule(registry.HierarchyDepthLevel, "top")))
	assert.False(t, hierarchyMatches(ix, cash, rule(registry.HierarchyDepthLevel, "bottom")))
	assert.True(t, hierarchyMatches(ix, cash, rule(registry.HierarchyPositionOrdinal, "first")))
	assert.True(t, hierarchyMatches(ix, other, rule(registry.HierarchyPositionOrdinal, "last")))
	assert.True(t, hierarchyMatches(ix, other, rule(registry.HierarchyPositionOrdinal, "3")))
}

func TestCalculationRules(t *testing.T) {
	t.Parallel()

	ix := testIndex()
	ca := ix.Concept("us-gaap:AssetsCurrent")
	ca.CalculationParents = []concept.CalcLink{{QName: "us-gaap:Assets", Weight: 1}}

	rule := func(kind, pattern string, patterns []string, minMatches int) registry.CalculationRule {
		return registry.CalculationRule{RuleType: kind, Pattern: pattern, Patterns: patterns, MinMatches: minMatches, Weight: 1}
	}

	assert.True(t, calculationMatches(ix, ca, rule(registry.CalcContributesTo, "Assets", nil, 1)))
	assert.True(t, calculationMatches(ix, ca, rule(registry.CalcParentOf, "*Receivable*", nil, 1)))
	assert.True(t, calculationMatches(ix, ca, rule(registry.CalcHasChildren, "", []string{"*Cash*", "*Receivable*"}, 2)))
	assert.False(t, calculationMatches(ix, ca, rule(registry.CalcHasChildren, "", []string{"*Cash*", "*Inventory*"}, 2)))
	assert.True(t, calculationMatches(ix, ca, rule(registry.CalcWeightSign, "positive", nil, 1)))
	assert.False(t, calculationMatches(ix, ca, rule(registry.CalcWeightSign, "negative", nil, 1)))
}

func TestDefinitionRules(t *testing.T) {
	t.Parallel()

	m := concept.NewMetadata("us-gaap:AssetsCurrent")
	m.Definition = "Sum of the carrying amounts realized within one year"
	m.Labels[concept.LabelDocumentation] = "or the normal operating cycle"

	rules := []registry.DefinitionRule{
		{Keywords: []string{"one year", "missing"}, Weight: 4},
		{Keywords: []string{"one year", "operating cycle"}, AllRequired: true, Weight: 3},
		{Keywords: []string{"one year", "missing"}, AllRequired: true, Weight: 2},
	}
	assert.Equal(t, 7, scoreDefinition(m, rules))
}
