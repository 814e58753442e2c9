package ratio

import (
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Calculation types. Division is the default when the field is empty.
const (
	CalcDivision            = "division"
	CalcAbsolute            = "absolute"
	CalcROIC                = "roic"
	CalcDuPont              = "dupont"
	CalcAltmanZ             = "altman_z"
	CalcCashConversionCycle = "cash_conversion_cycle"
)

// Operand is one side of a ratio: a single component name or a signed
// term list such as ["current_assets", "-inventory"].
type Operand struct {
	Terms []string
	List  bool
}

// One is a single-component operand.
func One(name string) Operand {
	return Operand{Terms: []string{name}}
}

// Sum is a signed term list operand.
func Sum(terms ...string) Operand {
	return Operand{Terms: terms, List: true}
}

// Empty reports whether the operand names nothing.
func (o Operand) Empty() bool { return len(o.Terms) == 0 }

// Names returns the component names without their sign prefixes.
func (o Operand) Names() []string {
	out := make([]string, 0, len(o.Terms))
	for _, t := range o.Terms {
		out = append(out, strings.TrimLeft(t, "+-"))
	}
	return out
}

// UnmarshalYAML accepts either a scalar or a sequence.
func (o *Operand) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*o = One(n.Value)
		return nil
	case yaml.SequenceNode:
		var terms []string
		if err := n.Decode(&terms); err != nil {
			return eris.Wrap(err, "ratio: decode operand")
		}
		*o = Sum(terms...)
		return nil
	}
	return eris.Errorf("ratio: operand at line %d must be a name or a list", n.Line)
}

// Definition describes one ratio.
type Definition struct {
	ID              string   `yaml:"ratio_id"`
	Name            string   `yaml:"name"`
	Category        string   `yaml:"category"`
	Formula         string   `yaml:"formula"`
	Numerator       Operand  `yaml:"numerator"`
	Denominator     Operand  `yaml:"denominator"`
	CalculationType string   `yaml:"calculation_type"`
	ScaleFactor     float64  `yaml:"scale_factor"`
	Components      []string `yaml:"components"`
}

// Type returns the calculation type, defaulting to division.
func (d Definition) Type() string {
	if d.CalculationType == "" {
		return CalcDivision
	}
	return d.CalculationType
}

// References lists every component the definition reads, in order and
// without duplicates.
func (d Definition) References() []string {
	var out []string
	seen := map[string]bool{}
	add := func(names []string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(d.Numerator.Names())
	add(d.Denominator.Names())
	add(d.Components)
	return out
}

// StandardRatios is the core ratio set computed for every filing.
var StandardRatios = []Definition{
	// Liquidity
	{ID: "current_ratio", Name: "Current Ratio", Category: "liquidity",
		Formula:   "Current Assets / Current Liabilities",
		Numerator: One("current_assets"), Denominator: One("current_liabilities")},
	{ID: "quick_ratio", Name: "Quick Ratio", Category: "liquidity",
		Formula:   "(Current Assets - Inventory) / Current Liabilities",
		Numerator: Sum("current_assets", "-inventory"), Denominator: One("current_liabilities")},
	{ID: "cash_ratio", Name: "Cash Ratio", Category: "liquidity",
		Formula:   "Cash / Current Liabilities",
		Numerator: One("cash_and_equivalents"), Denominator: One("current_liabilities")},

	// Leverage
	{ID: "debt_to_equity", Name: "Debt to Equity", Category: "leverage",
		Formula:   "Total Liabilities / Total Equity",
		Numerator: One("total_liabilities"), Denominator: One("total_equity")},
	{ID: "debt_ratio", Name: "Debt Ratio", Category: "leverage",
		Formula:   "Total Liabilities / Total Assets",
		Numerator: One("total_liabilities"), Denominator: One("total_assets")},
	{ID: "equity_multiplier", Name: "Equity Multiplier", Category: "leverage",
		Formula:   "Total Assets / Total Equity",
		Numerator: One("total_assets"), Denominator: One("total_equity")},
	{ID: "interest_coverage", Name: "Interest Coverage", Category: "leverage",
		Formula:   "Operating Income / Interest Expense",
		Numerator: One("operating_income"), Denominator: One("interest_expense")},

	// Profitability
	{ID: "gross_margin", Name: "Gross Margin", Category: "profitability",
		Formula:   "Gross Profit / Revenue",
		Numerator: One("gross_profit"), Denominator: One("revenue")},
	{ID: "operating_margin", Name: "Operating Margin", Category: "profitability",
		Formula:   "Operating Income / Revenue",
		Numerator: One("operating_income"), Denominator: One("revenue")},
	{ID: "net_profit_margin", Name: "Net Profit Margin", Category: "profitability",
		Formula:   "Net Income / Revenue",
		Numerator: One("net_income"), Denominator: One("revenue")},
	{ID: "return_on_assets", Name: "Return on Assets", Category: "profitability",
		Formula:   "Net Income / Total Assets",
		Numerator: One("net_income"), Denominator: One("total_assets")},
	{ID: "return_on_equity", Name: "Return on Equity", Category: "profitability",
		Formula:   "Net Income / Total Equity",
		Numerator: One("net_income"), Denominator: One("total_equity")},
	{ID: "ebitda_margin", Name: "EBITDA Margin", Category: "profitability",
		Formula:   "EBITDA / Revenue",
		Numerator: One("ebitda"), Denominator: One("revenue")},

	// Efficiency
	{ID: "asset_turnover", Name: "Asset Turnover", Category: "efficiency",
		Formula:   "Revenue / Total Assets",
		Numerator: One("revenue"), Denominator: One("total_assets")},
	{ID: "inventory_turnover", Name: "Inventory Turnover", Category: "efficiency",
		Formula:   "Cost of Goods Sold / Inventory",
		Numerator: One("cost_of_goods_sold"), Denominator: One("inventory")},
	{ID: "receivables_turnover", Name: "Receivables Turnover", Category: "efficiency",
		Formula:   "Revenue / Accounts Receivable",
		Numerator: One("revenue"), Denominator: One("accounts_receivable")},
	{ID: "payables_turnover", Name: "Payables Turnover", Category: "efficiency",
		Formula:   "Cost of Goods Sold / Accounts Payable",
		Numerator: One("cost_of_goods_sold"), Denominator: One("accounts_payable")},

	// Cash flow quality
	{ID: "cash_conversion_ratio", Name: "Cash Conversion Ratio", Category: "cash_flow_quality",
		Formula:   "Operating Cash Flow / Net Income",
		Numerator: One("operating_cash_flow"), Denominator: One("net_income")},
	{ID: "free_cash_flow", Name: "Free Cash Flow", Category: "cash_flow_quality",
		Formula:         "Operating Cash Flow - Capital Expenditures",
		CalculationType: CalcAbsolute,
		Numerator:       Sum("operating_cash_flow", "-capital_expenditures")},
	{ID: "sloan_accrual_ratio", Name: "Sloan Accrual Ratio", Category: "cash_flow_quality",
		Formula:   "(Net Income - Operating Cash Flow) / Total Assets",
		Numerator: Sum("net_income", "-operating_cash_flow"), Denominator: One("total_assets")},

	// Capital allocation
	{ID: "roic", Name: "Return on Invested Capital", Category: "capital_allocation",
		Formula:         "NOPAT / (Total Equity + Total Debt - Cash)",
		CalculationType: CalcROIC,
		Components: []string{"operating_income", "income_tax_expense", "income_before_tax",
			"total_equity", "total_debt", "cash_and_equivalents"}},
	{ID: "capital_intensity", Name: "Capital Intensity", Category: "capital_allocation",
		Formula:   "Total Assets / Revenue",
		Numerator: One("total_assets"), Denominator: One("revenue")},
	{ID: "r_and_d_intensity", Name: "R&D Intensity", Category: "capital_allocation",
		Formula:   "R&D Expense / Revenue",
		Numerator: One("r_and_d_expense"), Denominator: One("revenue")},

	// DuPont
	{ID: "tax_burden", Name: "Tax Burden", Category: "dupont",
		Formula:   "Net Income / Income Before Tax",
		Numerator: One("net_income"), Denominator: One("income_before_tax")},
	{ID: "interest_burden", Name: "Interest Burden", Category: "dupont",
		Formula:   "Income Before Tax / Operating Income",
		Numerator: One("income_before_tax"), Denominator: One("operating_income")},
	{ID: "dupont_roe", Name: "DuPont ROE", Category: "dupont",
		Formula:         "NI/EBT x EBT/EBIT x EBIT/Rev x Rev/TA x TA/Eq",
		CalculationType: CalcDuPont,
		Components: []string{"net_income", "income_before_tax", "operating_income",
			"revenue", "total_assets", "total_equity"}},

	// Distress
	{ID: "altman_z_score", Name: "Altman Z-Score", Category: "distress",
		Formula:         "1.2A + 1.4B + 3.3C + 0.6D + 1.0E",
		CalculationType: CalcAltmanZ,
		Components: []string{"current_assets", "current_liabilities", "retained_earnings",
			"total_assets", "operating_income", "total_equity", "total_liabilities", "revenue"}},

	// Operating leverage
	{ID: "sga_to_revenue", Name: "SG&A to Revenue", Category: "operating_leverage",
		Formula:   "SG&A / Revenue",
		Numerator: One("selling_general_admin"), Denominator: One("revenue")},
	{ID: "operating_expense_ratio", Name: "Operating Expense Ratio", Category: "operating_leverage",
		Formula:   "(Revenue - Operating Income) / Revenue",
		Numerator: Sum("revenue", "-operating_income"), Denominator: One("revenue")},
}

// ExtendedRatios is the optional second tier.
var ExtendedRatios = []Definition{
	{ID: "working_capital", Name: "Working Capital", Category: "liquidity",
		Formula:         "Current Assets - Current Liabilities",
		CalculationType: CalcAbsolute,
		Numerator:       Sum("current_assets", "-current_liabilities")},
	{ID: "debt_to_ebitda", Name: "Debt to EBITDA", Category: "leverage",
		Formula:   "Total Liabilities / EBITDA",
		Numerator: One("total_liabilities"), Denominator: One("ebitda")},
	{ID: "long_term_debt_to_equity", Name: "Long-Term Debt to Equity", Category: "leverage",
		Formula:   "Long-Term Debt / Total Equity",
		Numerator: One("long_term_debt"), Denominator: One("total_equity")},
	{ID: "effective_tax_rate", Name: "Effective Tax Rate", Category: "profitability",
		Formula:   "Income Tax Expense / Income Before Tax",
		Numerator: One("income_tax_expense"), Denominator: One("income_before_tax")},
	{ID: "return_on_capital_employed", Name: "Return on Capital Employed", Category: "profitability",
		Formula:   "Operating Income / (Total Assets - Current Liabilities)",
		Numerator: One("operating_income"), Denominator: Sum("total_assets", "-current_liabilities")},
	{ID: "days_inventory_outstanding", Name: "Days Inventory Outstanding", Category: "efficiency",
		Formula:   "(Inventory / Cost of Goods Sold) * 365",
		Numerator: One("inventory"), Denominator: One("cost_of_goods_sold"), ScaleFactor: 365},
	{ID: "days_sales_outstanding", Name: "Days Sales Outstanding", Category: "efficiency",
		Formula:   "(Accounts Receivable / Revenue) * 365",
		Numerator: One("accounts_receivable"), Denominator: One("revenue"), ScaleFactor: 365},
	{ID: "days_payable_outstanding", Name: "Days Payable Outstanding", Category: "efficiency",
		Formula:   "(Accounts Payable / Cost of Goods Sold) * 365",
		Numerator: One("accounts_payable"), Denominator: One("cost_of_goods_sold"), ScaleFactor: 365},
	{ID: "cash_conversion_cycle", Name: "Cash Conversion Cycle", Category: "efficiency",
		Formula:         "DIO + DSO - DPO",
		CalculationType: CalcCashConversionCycle,
		Components: []string{"inventory", "cost_of_goods_sold", "accounts_receivable",
			"revenue", "accounts_payable"}},
	{ID: "free_cash_flow_margin", Name: "Free Cash Flow Margin", Category: "cash_flow_quality",
		Formula:   "(Operating Cash Flow - CapEx) / Revenue",
		Numerator: Sum("operating_cash_flow", "-capital_expenditures"), Denominator: One("revenue")},
	{ID: "cash_flow_to_debt", Name: "Cash Flow to Debt", Category: "cash_flow_quality",
		Formula:   "Operating Cash Flow / Total Liabilities",
		Numerator: One("operating_cash_flow"), Denominator: One("total_liabilities")},
	{ID: "capex_coverage", Name: "CapEx Coverage", Category: "cash_flow_quality",
		Formula:   "Operating Cash Flow / Capital Expenditures",
		Numerator: One("operating_cash_flow"), Denominator: One("capital_expenditures")},
	{ID: "capex_to_revenue", Name: "CapEx to Revenue", Category: "capital_allocation",
		Formula:   "Capital Expenditures / Revenue",
		Numerator: One("capital_expenditures"), Denominator: One("revenue")},
	{ID: "fixed_asset_turnover", Name: "Fixed Asset Turnover", Category: "capital_allocation",
		Formula:   "Revenue / Property, Plant & Equipment",
		Numerator: One("revenue"), Denominator: One("property_plant_equipment")},
	{ID: "r_and_d_to_sga", Name: "R&D to SG&A", Category: "operating_leverage",
		Formula:   "R&D Expense / SG&A",
		Numerator: One("r_and_d_expense"), Denominator: One("selling_general_admin")},
	{ID: "book_value_per_share", Name: "Book Value Per Share", Category: "per_share",
		Formula:   "Total Equity / Shares Outstanding",
		Numerator: One("total_equity"), Denominator: One("shares_outstanding")},
	{ID: "operating_cf_per_share", Name: "Operating Cash Flow Per Share", Category: "per_share",
		Formula:   "Operating Cash Flow / Shares Outstanding",
		Numerator: One("operating_cash_flow"), Denominator: One("shares_outstanding")},
}

// ComponentsFor returns every component the definitions read, in first
// reference order.
func ComponentsFor(defs []Definition, extra ...string) []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range defs {
		for _, n := range d.References() {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	for _, n := range extra {
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
