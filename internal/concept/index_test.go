package concept

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

type stubHierarchy struct {
	nodes []model.HierarchyNode
	err   error
}

func (s stubHierarchy) HierarchyNodes(_ context.Context, _ string) ([]model.HierarchyNode, error) {
	return s.nodes, s.err
}

func sampleMapped() *model.MappedFiling {
	return &model.MappedFiling{Statements: []model.MappedStatement{{
		Name: "balance_sheet",
		Facts: []model.MappedFact{
			{Concept: "us-gaap:AssetsAbstract", IsAbstract: true, Level: 0, Order: 1},
			{Concept: "us-gaap:AssetsCurrent", Label: "Total current assets", Value: model.Float(300), Level: 1, ParentConcept: "us-gaap:Assets", Order: 2, Sign: 1, Unit: "USD"},
			{Concept: "us-gaap:AssetsNoncurrent", Value: model.Float(700), Level: 1, ParentConcept: "us-gaap:Assets", Order: 3, Sign: 1, Unit: "USD"},
			{Concept: "us-gaap:Assets", Label: "Total assets", Value: model.Float(1000), Level: 0, Order: 4, Unit: "USD"},
			{Concept: "us-gaap:LiabilitiesCurrent", Label: "Total current liabilities", Value: model.Float(200), Level: 1, ParentConcept: "us-gaap:Liabilities", Order: 5, Unit: "USD"},
		},
	}}}
}

func sampleParsed() *model.ParsedFiling {
	return &model.ParsedFiling{Facts: []model.ParsedFact{
		{Concept: "us-gaap:Assets", PeriodType: "instant", Unit: "USD"},
		{Concept: "us-gaap_Revenues", PeriodType: "duration", Unit: "USD"},
	}}
}

func TestBuildLayers(t *testing.T) {
	t.Parallel()

	ix := NewBuilder().Build(context.Background(), sampleMapped(), sampleParsed(), BuildOptions{})
	require.NotNil(t, ix)

	assets := ix.Concept("us-gaap_Assets")
	require.NotNil(t, assets)
	assert.Equal(t, "Total assets", assets.Label(LabelStandard))
	assert.Equal(t, PeriodInstant, assets.Period)
	assert.Equal(t, DataMonetary, assets.DataType)
	assert.Len(t, assets.CalculationChildren, 2)

	current := ix.Concept("us-gaap:AssetsCurrent")
	require.NotNil(t, current)
	assert.Equal(t, "us-gaap:Assets", current.PresentationParent)
	assert.Equal(t, 1, current.PresentationLevel)
	assert.Equal(t, []string{"us-gaap:AssetsNoncurrent"}, current.Siblings)
	assert.Equal(t, "Assets Current", current.Label(LabelGenerated))
	require.Len(t, current.CalculationParents, 1)
	assert.Equal(t, 1.0, current.CalculationParents[0].Weight)

	revenue := ix.Concept("us-gaap:Revenues")
	require.NotNil(t, revenue, "parsed-only concepts are added")
	assert.Equal(t, PeriodDuration, revenue.Period)

	assert.True(t, ix.Concept("us-gaap:AssetsAbstract").Abstract)

	// Liabilities exists only as a parent reference without a sign.
	assert.Nil(t, ix.Concept("us-gaap:Liabilities"))
}

func TestBuildNilSources(t *testing.T) {
	t.Parallel()

	ix := NewBuilder().Build(context.Background(), nil, nil, BuildOptions{})
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.All())
}

func TestBuildHierarchyEnrichment(t *testing.T) {
	t.Parallel()

	src := stubHierarchy{nodes: []model.HierarchyNode{
		{Concept: "us-gaap_AssetsCurrent", Label: "Current assets, total", StandardLabel: "Assets, Current"},
		{Concept: "us-gaap:Revenues", Label: "Revenues", Level: 2, ParentID: "us-gaap:IncomeStatementAbstract", Order: 7},
		{Concept: "us-gaap:Unseen", Label: "ignored"},
	}}
	ix := NewBuilder().Build(context.Background(), sampleMapped(), sampleParsed(), BuildOptions{Company: "acme", Hierarchy: src})

	current := ix.Concept("us-gaap:AssetsCurrent")
	assert.Equal(t, "Current assets, total", current.Label(LabelTaxonomy))
	assert.Equal(t, "Assets, Current", current.Label(LabelStandard))
	assert.Equal(t, 1, current.PresentationLevel, "existing structure is kept")

	revenue := ix.Concept("us-gaap:Revenues")
	assert.True(t, revenue.HasPresentation)
	assert.Equal(t, 2, revenue.PresentationLevel)
	assert.Equal(t, "us-gaap:IncomeStatementAbstract", revenue.PresentationParent)
	assert.Nil(t, ix.Concept("us-gaap:Unseen"))
}

func TestBuildHierarchyErrorIgnored(t *testing.T) {
	t.Parallel()

	src := stubHierarchy{err: errors.New("connection refused")}
	ix := NewBuilder().Build(context.Background(), sampleMapped(), nil, BuildOptions{Company: "acme", Hierarchy: src})
	assert.Equal(t, 5, ix.Len())
}

func TestFindByLocalName(t *testing.T) {
	t.Parallel()

	ix := NewBuilder().Build(context.Background(), sampleMapped(), sampleParsed(), BuildOptions{})

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*current*", []string{"us-gaap:AssetsCurrent", "us-gaap:AssetsNoncurrent", "us-gaap:LiabilitiesCurrent"}},
		{"*Current", []string{"us-gaap:AssetsCurrent", "us-gaap:AssetsNoncurrent", "us-gaap:LiabilitiesCurrent"}},
		{"Assets*", []string{"us-gaap:Assets", "us-gaap:AssetsAbstract", "us-gaap:AssetsCurrent", "us-gaap:AssetsNoncurrent"}},
		{"assets", []string{"us-gaap:Assets"}},
		{"Revenue", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			var got []string
			for _, m := range ix.FindByLocalName(tt.pattern) {
				got = append(got, m.QName)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindChildrenAndLabels(t *testing.T) {
	t.Parallel()

	ix := NewBuilder().Build(context.Background(), sampleMapped(), nil, BuildOptions{})

	children := ix.FindChildrenOf("us-gaap_Assets")
	require.Len(t, children, 2)
	assert.Equal(t, "us-gaap:AssetsCurrent", children[0].QName)
	assert.Equal(t, "us-gaap:AssetsNoncurrent", children[1].QName)

	byLabel := ix.FindByLabelWord("liabilities")
	require.Len(t, byLabel, 1)
	assert.Equal(t, "us-gaap:LiabilitiesCurrent", byLabel[0].QName)
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	ix := NewBuilder().Build(context.Background(), sampleMapped(), sampleParsed(), BuildOptions{})

	got := ix.Candidates(CandidateQuery{
		LabelPatterns:   []string{"current assets"},
		Balance:         BalanceDebit,
		Period:          PeriodInstant,
		ExcludeAbstract: true,
	})
	var names []string
	for _, m := range got {
		names = append(names, m.QName)
	}
	assert.Contains(t, names, "us-gaap:AssetsCurrent")
	assert.NotContains(t, names, "us-gaap:AssetsAbstract")
	assert.NotContains(t, names, "us-gaap:LiabilitiesCurrent", "credit balance is filtered")

	limited := ix.Candidates(CandidateQuery{LocalPatterns: []string{"Assets"}, Max: 2})
	assert.Len(t, limited, 2)
}

func TestSupplementFromIXBRL(t *testing.T) {
	t.Parallel()

	ix := NewBuilder().Build(context.Background(), sampleMapped(), nil, BuildOptions{})
	contexts := ixbrl.NewContextSet([]ixbrl.ContextInfo{
		{ID: "FY", IsPrimary: true, PeriodType: "duration", Start: "2024-01-01", End: "2024-12-31"},
	})
	facts := []ixbrl.VerifiedFact{
		{Concept: "us-gaap:Assets", ContextRef: "FY"},
		{Concept: "us-gaap:InterestExpense", ContextRef: "FY", UnitRef: "USD"},
	}

	added := ix.SupplementFromIXBRL(facts, contexts)
	assert.Equal(t, 1, added)

	interest := ix.Concept("us-gaap:InterestExpense")
	require.NotNil(t, interest)
	assert.Equal(t, PeriodDuration, interest.Period)
	assert.Equal(t, "Interest Expense", interest.Label(LabelStandard))
}
