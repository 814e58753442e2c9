package matcher

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
)

const testComponents = `
components:
  - component_id: current_assets
    display_name: Current Assets
    category: balance_sheet
    characteristics: {balance_type: debit, period_type: instant}
    matching_rules:
      label_rules:
        - patterns: ["current assets"]
          weight: 15
      local_name_rules:
        - patterns: ["AssetsCurrent"]
          match_type: exact
          weight: 10
      calculation_rules:
        - rule_type: has_children
          patterns: ["*Cash*", "*Receivable*"]
          min_matches: 2
          weight: 8
    scoring:
      min_score: 15
      confidence_levels: {high: 30, medium: 22, low: 15}
      reject_if:
        - {condition: "Other assets", pattern: "name~Other"}

  - component_id: total_assets
    display_name: Total Assets
    category: balance_sheet
    characteristics: {balance_type: debit, period_type: instant}
    matching_rules:
      label_rules:
        - patterns: ["total assets"]
          weight: 15
      local_name_rules:
        - patterns: ["Assets"]
          match_type: exact
          weight: 10
    scoring:
      min_score: 15
      confidence_levels: {high: 30, medium: 22, low: 15}
      reject_if:
        - {condition: "Current", pattern: "name~current"}

  - component_id: revenue
    display_name: Revenue
    category: income_statement
    characteristics: {balance_type: credit, period_type: duration}
    matching_rules:
      label_rules:
        - patterns: ["revenues"]
          weight: 15
    scoring:
      min_score: 15
      confidence_levels: {high: 30, medium: 22, low: 15}

  - component_id: goodwill
    display_name: Goodwill
    category: balance_sheet
    characteristics: {balance_type: debit, period_type: duration}
    matching_rules:
      label_rules:
        - patterns: ["goodwill"]
          weight: 15

  - component_id: cash
    display_name: Cash
    category: balance_sheet
    characteristics: {balance_type: debit, period_type: instant}
    matching_rules:
      label_rules:
        - patterns: ["cash and cash equivalents"]
          weight: 15
    scoring:
      reject_if:
        - {condition: "Cash", pattern: "name~Cash"}

  - component_id: noncurrent_assets
    display_name: Noncurrent Assets
    category: balance_sheet
    composition:
      is_composite: true
      components: [total_assets, current_assets]
      formula: "total_assets - current_assets"

  - component_id: goodwill_or_assets
    display_name: Goodwill Or Assets
    category: balance_sheet
    composition:
      components: [goodwill]
      formula: "goodwill"
      alternatives:
        - components: [total_assets]
          formula: "total_assets"

  - component_id: double_goodwill
    display_name: Double Goodwill
    category: balance_sheet
    composition:
      components: [goodwill, total_assets]
      formula: "goodwill + goodwill"
`

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadFS(fstest.MapFS{
		"defs/test.yaml": &fstest.MapFile{Data: []byte(testComponents)},
	}, "defs")
	require.NoError(t, err)
	return reg
}

func put(ix *concept.Index, qname, label, balance, period string, level int, parent string, order float64) *concept.Metadata {
	m := concept.NewMetadata(qname)
	m.Labels[concept.LabelStandard] = label
	m.Balance = balance
	m.Period = period
	m.HasPresentation = true
	m.PresentationLevel = level
	m.PresentationParent = parent
	m.PresentationOrder = order
	ix.Put(m)
	return m
}

func testIndex() *concept.Index {
	ix := concept.NewIndex()
	put(ix, "us-gaap:Assets", "Total assets", "debit", "instant", 0, "", 10)
	ca := put(ix, "us-gaap:AssetsCurrent", "Total current assets", "debit", "instant", 1, "us-gaap:Assets", 1)
	ca.CalculationChildren = []concept.CalcLink{
		{QName: "us-gaap:CashAndCashEquivalentsAtCarryingValue", Weight: 1},
		{QName: "us-gaap:AccountsReceivableNetCurrent", Weight: 1},
	}
	put(ix, "us-gaap:OtherAssetsCurrent", "Other current assets", "debit", "instant", 2, "us-gaap:AssetsCurrent", 3)
	put(ix, "us-gaap:CashAndCashEquivalentsAtCarryingValue", "Cash and cash equivalents", "debit", "instant", 2, "us-gaap:AssetsCurrent", 1)
	put(ix, "us-gaap:AccountsReceivableNetCurrent", "Accounts receivable, net", "debit", "instant", 2, "us-gaap:AssetsCurrent", 2)
	put(ix, "us-gaap:Revenues", "Revenues", "credit", "duration", 1, "", 1)
	put(ix, "custom:Revenues", "Revenues", "credit", "duration", 2, "", 2)
	return ix
}
