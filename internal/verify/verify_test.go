package verify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/matcher"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

type mapSource map[string]float64

func (s mapSource) Get(name string) (float64, bool) {
	v, ok := s[name]
	return v, ok
}

func match(component, qname string, confidence float64, value *float64) *model.ComponentMatch {
	return &model.ComponentMatch{
		ComponentName:  component,
		Matched:        true,
		MatchedConcept: qname,
		Confidence:     confidence,
		Value:          value,
	}
}

func resolution(alts map[string][]matcher.ScoredMatch) *matcher.ResolutionMap {
	rm := &matcher.ResolutionMap{Matches: make(map[string]*matcher.MatchResult)}
	for id, list := range alts {
		rm.Matches[id] = &matcher.MatchResult{ComponentID: id, Status: matcher.StatusMatched, Alternatives: list}
	}
	return rm
}

func index(labels map[string]string) *concept.Index {
	ix := concept.NewIndex()
	for qname, label := range labels {
		m := concept.NewMetadata(qname)
		m.Labels[concept.LabelStandard] = label
		ix.Put(m)
	}
	return ix
}

func TestQualify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		component  string
		qname      string
		confidence float64
		ok         bool
		penalty    float64
	}{
		{"long-term current portion accepted", "long_term_debt", "us-gaap:LongTermDebtCurrent", 30, true, 0},
		{"hyphenated long-term accepted", "long_term_debt", "custom:Long-TermNotesCurrent", 30, true, 0},
		{"bare current rejected", "long_term_debt", "us-gaap:DebtCurrent", 30, false, 0},
		{"short-term current rejected", "long_term_debt", "us-gaap:ShortTermBorrowingsCurrent", 30, false, 0},
		{"noncurrent accepted", "long_term_debt", "us-gaap:LongTermDebtNoncurrent", 30, true, 0},
		{"long-term accepted", "long_term_debt", "us-gaap:LongTermDebt", 30, true, 0},
		{"definitive match skipped", "long_term_debt", "us-gaap:DebtCurrent", 100, true, 0},
		{"current component unaffected", "short_term_debt", "us-gaap:DebtCurrent", 30, true, 0},
		{"supplemental rejected", "capital_expenditures", "us-gaap:CapitalExpendituresIncurredButNotYetPaid", 30, false, 0},
		{"paid during period rejected", "income_tax_expense", "us-gaap:IncomeTaxesPaidDuringPeriod", 30, false, 0},
		{"change concept penalized", "inventory", "us-gaap:IncreaseDecreaseInInventories", 30, true, 15},
		{"change concept for flow component", "revenue", "custom:RevenueIncreaseDecrease", 30, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := qualify(tt.component, tt.qname, tt.confidence)
			assert.Equal(t, tt.ok, q.ok)
			assert.Equal(t, tt.penalty, q.penalty)
			if !tt.ok {
				assert.NotEmpty(t, q.reason)
			}
		})
	}
}

func TestPlausibility(t *testing.T) {
	t.Parallel()

	values := map[string]*float64{
		"total_assets":      model.Float(1000),
		"total_liabilities": model.Float(600),
		"revenue":           model.Float(1000),
		"income_before_tax": model.Float(10),
		"current_assets":    nil,
	}
	tests := []struct {
		name      string
		component string
		value     float64
		fails     int
	}{
		{"subset exceeded", "current_assets", 1200, 1},
		{"subset within slack", "current_assets", 1040, 0},
		{"negative value is not a magnitude failure", "revenue", -5, 0},
		{"ratio below min", "long_term_debt", 0.5, 1},
		{"ratio within bounds", "long_term_debt", 300, 0},
		{"ratio above max", "income_tax_expense", 25, 1},
		{"missing reference skipped", "short_term_debt", 1, 0},
		{"nil parent skipped", "cash_and_equivalents", 5000, 0},
		{"eps within bounds", "earnings_per_share", 5, 0},
		{"unknown component", "goodwill", -10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, plausibility(tt.component, tt.value, values), tt.fails)
		})
	}
}

func TestVerifyPromotesSubsetViolation(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_assets", "us-gaap:Assets", 25, model.Float(1000)),
		match("total_liabilities", "us-gaap:Liabilities", 25, model.Float(600)),
		match("current_assets", "custom:CurrentAssetsGross", 30, model.Float(1200)),
		match("current_liabilities", "us-gaap:LiabilitiesCurrent", 33, model.Float(200)),
	}
	rm := resolution(map[string][]matcher.ScoredMatch{
		"current_assets": {
			{Concept: "custom:CurrentAssetsGross", Score: 30},
			{Concept: "us-gaap:AssetsCurrent", Score: 20},
		},
	})
	ix := index(map[string]string{"us-gaap:AssetsCurrent": "Total current assets"})
	values := mapSource{"us-gaap:AssetsCurrent": 300}

	rep := New(DefaultOptions()).Verify(matches, rm, ix, values)

	require.Len(t, rep.Flags, 1)
	assert.Equal(t, CheckPlausibility, rep.Flags[0].Check)
	require.Len(t, rep.Corrections, 1)
	c := rep.Corrections[0]
	assert.Equal(t, "current_assets", c.Component)
	assert.Equal(t, "custom:CurrentAssetsGross", c.OldConcept)
	assert.Equal(t, 1200.0, *c.OldValue)
	assert.Equal(t, "us-gaap:AssetsCurrent", c.NewConcept)
	assert.Equal(t, 300.0, c.NewValue)
	assert.Equal(t, SourceAlternative, c.Source)
	assert.Equal(t, 1, rep.Promotions())
	assert.Empty(t, rep.Recheck)

	ca := matches.ByName("current_assets")
	assert.Equal(t, "us-gaap:AssetsCurrent", ca.MatchedConcept)
	assert.Equal(t, 20.0, ca.Confidence)
	assert.Equal(t, 300.0, *ca.Value)
	assert.Equal(t, "Total current assets", ca.Label)

	assert.Equal(t, StatePromoted, rep.States["current_assets"])
	assert.Equal(t, StateVerified, rep.States["total_assets"])
	assert.Equal(t, StateVerified, rep.States["current_liabilities"])
}

func TestVerifyRejectsCurrentDebtForLongTermDebt(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_liabilities", "us-gaap:Liabilities", 25, model.Float(600)),
		match("long_term_debt", "us-gaap:DebtCurrent", 40, model.Float(50)),
	}
	rm := resolution(map[string][]matcher.ScoredMatch{
		"long_term_debt": {
			{Concept: "us-gaap:ShortTermBorrowingsCurrent", Score: 20},
			{Concept: "us-gaap:LongTermDebtNoncurrent", Score: 18},
		},
	})
	values := mapSource{
		"us-gaap:ShortTermBorrowingsCurrent": 10,
		"us-gaap:LongTermDebtNoncurrent":     400,
	}

	rep := New(Options{}).Verify(matches, rm, nil, values)

	require.Len(t, rep.Flags, 1)
	assert.Equal(t, CheckQualifier, rep.Flags[0].Check)
	require.Len(t, rep.Corrections, 1)
	assert.Equal(t, "us-gaap:LongTermDebtNoncurrent", rep.Corrections[0].NewConcept)
	ltd := matches.ByName("long_term_debt")
	assert.Equal(t, 18.0, ltd.Confidence)
	assert.Equal(t, 400.0, *ltd.Value)
}

func TestVerifyFallbackScan(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("current_liabilities", "us-gaap:LiabilitiesCurrent", 33, model.Float(200)),
		match("accounts_payable", "us-gaap:AccountsPayableRelatedParties", 20, model.Float(500)),
	}
	ix := index(map[string]string{
		"us-gaap:AccountsPayableRelatedParties": "Due to related parties",
		"us-gaap:AccountsPayableCurrent":        "Accounts payable",
		"us-gaap:AccountsPayableTextBlock":      "Payables note",
	})
	values := mapSource{"us-gaap:AccountsPayableCurrent": 150, "us-gaap:AccountsPayableTextBlock": 1}

	rep := New(DefaultOptions()).Verify(matches, nil, ix, values)

	require.Len(t, rep.Corrections, 1)
	c := rep.Corrections[0]
	assert.Equal(t, SourceFallback, c.Source)
	assert.Equal(t, "us-gaap:AccountsPayableCurrent", c.NewConcept)
	ap := matches.ByName("accounts_payable")
	assert.Equal(t, 50.0, ap.Confidence)
	assert.Equal(t, "Accounts payable", ap.Label)
}

func TestVerifyUnresolvedKeepsOriginal(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_assets", "us-gaap:Assets", 25, model.Float(1000)),
		match("current_assets", "custom:CurrentAssetsGross", 30, model.Float(1200)),
	}
	rep := New(DefaultOptions()).Verify(matches, nil, concept.NewIndex(), mapSource{})

	assert.Equal(t, StateUnresolved, rep.States["current_assets"])
	assert.Empty(t, rep.Corrections)
	ca := matches.ByName("current_assets")
	assert.Equal(t, 1200.0, *ca.Value)
	assert.Equal(t, "custom:CurrentAssetsGross", ca.MatchedConcept)
	assert.Equal(t, 20.0, ca.Confidence)
	assert.Equal(t, 25.0, matches.ByName("total_assets").Confidence)
}

func TestVerifyUnresolvedConfidenceFloorsAtZero(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_assets", "us-gaap:Assets", 25, model.Float(1000)),
		match("current_assets", "custom:CurrentAssetsGross", 4, model.Float(1200)),
	}
	New(DefaultOptions()).Verify(matches, nil, nil, mapSource{})
	assert.Zero(t, matches.ByName("current_assets").Confidence)
}

func TestVerifySkipsConfidentMatches(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_assets", "us-gaap:Assets", 25, model.Float(1000)),
		match("current_assets", "custom:CurrentAssetsGross", 60, model.Float(1200)),
		match("noncurrent", "COMPOSITE:total_assets - current_assets", 100, model.Float(-200)),
	}
	rep := New(DefaultOptions()).Verify(matches, nil, nil, mapSource{})

	assert.Empty(t, rep.Flags)
	assert.Equal(t, StateVerified, rep.States["current_assets"])
	_, checked := rep.States["noncurrent"]
	assert.False(t, checked)
}

func TestVerifyRecheckAfterPromotion(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_assets", "us-gaap:Assets", 60, model.Float(1000)),
		match("current_assets", "custom:CurrentAssetsX", 20, model.Float(5000)),
		match("cash_and_equivalents", "us-gaap:CashAndCashEquivalentsAtCarryingValue", 60, model.Float(300)),
	}
	rm := resolution(map[string][]matcher.ScoredMatch{
		"current_assets": {{Concept: "us-gaap:AssetsCurrent", Score: 18}},
	})
	rep := New(DefaultOptions()).Verify(matches, rm, nil, mapSource{"us-gaap:AssetsCurrent": 100})

	require.Len(t, rep.Corrections, 1)
	require.Len(t, rep.Recheck, 1)
	assert.Equal(t, "cash_and_equivalents", rep.Recheck[0].Component)
	assert.Equal(t, CheckRecheck, rep.Recheck[0].Check)
	assert.Equal(t, StateVerified, rep.States["cash_and_equivalents"])
}

func TestVerifyKeepsNegativeOutflow(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_assets", "us-gaap:Assets", 60, model.Float(1000)),
		match("capital_expenditures", "us-gaap:PaymentsToAcquirePropertyPlantAndEquipment", 40, model.Float(-50)),
	}
	rm := resolution(map[string][]matcher.ScoredMatch{
		"capital_expenditures": {{Concept: "us-gaap:PaymentsToAcquireOtherProductiveAssets", Score: 30}},
	})
	rep := New(DefaultOptions()).Verify(matches, rm, nil, mapSource{"us-gaap:PaymentsToAcquireOtherProductiveAssets": 5})

	assert.Empty(t, rep.Flags)
	assert.Empty(t, rep.Corrections)
	assert.Equal(t, StateVerified, rep.States["capital_expenditures"])
	capex := matches.ByName("capital_expenditures")
	assert.Equal(t, "us-gaap:PaymentsToAcquirePropertyPlantAndEquipment", capex.MatchedConcept)
	assert.Equal(t, -50.0, *capex.Value)

	require.Len(t, rep.Notes, 1)
	assert.Equal(t, CheckSign, rep.Notes[0].Check)
	assert.Equal(t, "capital_expenditures", rep.Notes[0].Component)
}

func TestVerifyRecomputesCompositesAfterPromotion(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_assets", "us-gaap:Assets", 25, model.Float(1000)),
		match("current_assets", "custom:CurrentAssetsGross", 30, model.Float(1200)),
		match("current_liabilities", "us-gaap:LiabilitiesCurrent", 60, model.Float(200)),
		match("working_capital", "COMPOSITE:current_assets - current_liabilities", 100, model.Float(1000)),
	}
	rm := resolution(map[string][]matcher.ScoredMatch{
		"current_assets": {{Concept: "us-gaap:AssetsCurrent", Score: 20}},
	})
	rep := New(DefaultOptions()).Verify(matches, rm, nil, mapSource{"us-gaap:AssetsCurrent": 300})

	require.Len(t, rep.Corrections, 1)
	assert.Equal(t, []string{"working_capital"}, rep.Recomputed)
	assert.Equal(t, 100.0, *matches.ByName("working_capital").Value)
}

func TestVerifyAlternativeCap(t *testing.T) {
	t.Parallel()

	alts := make([]matcher.ScoredMatch, 0, 6)
	values := mapSource{"us-gaap:AssetsCurrent": 300}
	for i := range 5 {
		qname := fmt.Sprintf("custom:CurrentAssetsVariant%d", i)
		alts = append(alts, matcher.ScoredMatch{Concept: qname, Score: 25 - i})
		values[qname] = 2000
	}
	alts = append(alts, matcher.ScoredMatch{Concept: "us-gaap:AssetsCurrent", Score: 10})

	newMatches := func() model.MatchSet {
		return model.MatchSet{
			match("total_assets", "us-gaap:Assets", 25, model.Float(1000)),
			match("current_assets", "custom:CurrentAssetsGross", 30, model.Float(1200)),
		}
	}
	rm := resolution(map[string][]matcher.ScoredMatch{"current_assets": alts})

	capped := newMatches()
	rep := New(DefaultOptions()).Verify(capped, rm, nil, values)
	assert.Empty(t, rep.Corrections, "sixth alternative is past the cap")
	assert.Equal(t, StateUnresolved, rep.States["current_assets"])
	assert.Equal(t, "custom:CurrentAssetsGross", capped.ByName("current_assets").MatchedConcept)

	opts := DefaultOptions()
	opts.MaxAlternatives = 6
	wider := newMatches()
	rep = New(opts).Verify(wider, rm, nil, values)
	require.Len(t, rep.Corrections, 1)
	assert.Equal(t, "us-gaap:AssetsCurrent", rep.Corrections[0].NewConcept)
}

func TestVerifyFallbackCap(t *testing.T) {
	t.Parallel()

	labels := map[string]string{"us-gaap:AccountsPayableCurrent": "Accounts payable"}
	values := mapSource{"us-gaap:AccountsPayableCurrent": 150}
	for i := range 10 {
		qname := fmt.Sprintf("custom:AccountsPayableTier%02d", i)
		labels[qname] = "Payables tier"
		values[qname] = 900
	}
	ix := index(labels)

	newMatches := func() model.MatchSet {
		return model.MatchSet{
			match("current_liabilities", "us-gaap:LiabilitiesCurrent", 33, model.Float(200)),
			match("accounts_payable", "us-gaap:AccountsPayableRelatedParties", 20, model.Float(500)),
		}
	}

	capped := newMatches()
	rep := New(DefaultOptions()).Verify(capped, nil, ix, values)
	assert.Empty(t, rep.Corrections, "eleventh candidate is past the cap")
	assert.Equal(t, StateUnresolved, rep.States["accounts_payable"])

	opts := DefaultOptions()
	opts.FallbackCap = 11
	wider := newMatches()
	rep = New(opts).Verify(wider, nil, ix, values)
	require.Len(t, rep.Corrections, 1)
	assert.Equal(t, "us-gaap:AccountsPayableCurrent", rep.Corrections[0].NewConcept)
	assert.Equal(t, SourceFallback, rep.Corrections[0].Source)
}

func TestVerifyIsIdempotent(t *testing.T) {
	t.Parallel()

	matches := model.MatchSet{
		match("total_assets", "us-gaap:Assets", 25, model.Float(1000)),
		match("current_assets", "custom:CurrentAssetsGross", 30, model.Float(1200)),
	}
	rm := resolution(map[string][]matcher.ScoredMatch{
		"current_assets": {{Concept: "us-gaap:AssetsCurrent", Score: 20}},
	})
	values := mapSource{"us-gaap:AssetsCurrent": 300}
	v := New(DefaultOptions())

	v.Verify(matches, rm, nil, values)
	first := matches.Clone()
	rep := v.Verify(matches, rm, nil, values)

	assert.Equal(t, first, matches)
	assert.Empty(t, rep.Corrections)
}
