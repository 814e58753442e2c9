package verify

// Bound constrains |component| / |reference|. A zero Max means unbounded.
type Bound struct {
	Component string
	Reference string
	Min       float64
	Max       float64
}

// RatioBounds are magnitude bounds relative to a reference component.
var RatioBounds = []Bound{
	{Component: "long_term_debt", Reference: "total_liabilities", Min: 0.01},
	{Component: "short_term_debt", Reference: "current_liabilities", Min: 0.005},
	{Component: "capital_expenditures", Reference: "total_assets", Min: 0.001, Max: 0.80},
	{Component: "interest_expense", Reference: "long_term_debt", Min: 0.001, Max: 0.30},
	{Component: "depreciation_amortization", Reference: "total_assets", Min: 0.001, Max: 0.50},
	{Component: "operating_income", Reference: "revenue", Min: 0.001, Max: 5.0},
	{Component: "net_income", Reference: "revenue", Min: 0.0001, Max: 5.0},
	{Component: "income_tax_expense", Reference: "income_before_tax", Max: 2.0},
	{Component: "earnings_per_share", Reference: "revenue", Max: 0.01},
}

// Subset requires |Child| <= |Parent| * SubsetSlack.
type Subset struct {
	Child  string
	Parent string
}

// SubsetSlack tolerates rounding between statement subtotals.
const SubsetSlack = 1.05

// SubsetRules are the part-of-whole relationships between components.
var SubsetRules = []Subset{
	{Child: "current_assets", Parent: "total_assets"},
	{Child: "current_liabilities", Parent: "total_liabilities"},
	{Child: "cash_and_equivalents", Parent: "current_assets"},
	{Child: "inventory", Parent: "current_assets"},
	{Child: "accounts_receivable", Parent: "current_assets"},
	{Child: "accounts_payable", Parent: "current_liabilities"},
	{Child: "long_term_debt", Parent: "total_liabilities"},
	{Child: "short_term_debt", Parent: "current_liabilities"},
	{Child: "gross_profit", Parent: "revenue"},
	{Child: "interest_expense", Parent: "total_liabilities"},
	{Child: "income_tax_expense", Parent: "revenue"},
}

// PositiveComponents are normally reported positive. A negative value is
// noted but never rejects a match.
var PositiveComponents = map[string]bool{
	"total_assets":              true,
	"revenue":                   true,
	"cost_of_goods_sold":        true,
	"total_liabilities":         true,
	"capital_expenditures":      true,
	"interest_expense":          true,
	"depreciation_amortization": true,
}

// FallbackPatterns are local-name wildcards scanned when no matcher
// alternative survives verification.
var FallbackPatterns = map[string][]string{
	"total_assets":              {"*Assets"},
	"current_assets":            {"*AssetsCurrent*", "*CurrentAssets*"},
	"total_liabilities":         {"*Liabilities", "*LiabilitiesAndStockholdersEquity*"},
	"current_liabilities":       {"*LiabilitiesCurrent*", "*CurrentLiabilities*"},
	"total_equity":              {"*StockholdersEquity*", "*Equity", "*ShareholdersEquity*"},
	"cash_and_equivalents":      {"*CashAndCashEquivalent*", "*CashAndDueFromBanks*", "*CashCashEquivalent*"},
	"inventory":                 {"*InventoryNet*", "*InventoryFinishedGoods*", "*Inventories*"},
	"accounts_receivable":       {"*AccountsReceivableNet*", "*TradeAndOtherReceivable*", "*TradeReceivable*"},
	"accounts_payable":          {"*AccountsPayable*", "*TradeAndOtherPayable*", "*TradePayable*"},
	"long_term_debt":            {"*LongTermDebt*", "*LongTermBorrowing*", "*NoncurrentBorrowing*", "*ConvertibleLongTermNotesPayable*"},
	"short_term_debt":           {"*ShortTermBorrowing*", "*ShortTermDebt*", "*CurrentPortionOfLongTermDebt*"},
	"total_debt":                {"*DebtCurrent*", "*LongTermDebt*", "*TotalDebt*"},
	"revenue":                   {"*Revenue*", "*Revenues*", "*Turnover*", "*SalesRevenueNet*"},
	"cost_of_goods_sold":        {"*CostOfRevenue*", "*CostOfGoodsAndServicesSold*", "*CostOfGoodsSold*", "*CostOfSales*"},
	"gross_profit":              {"*GrossProfit*"},
	"operating_income":          {"*OperatingIncomeLoss*", "*OperatingProfit*"},
	"income_before_tax":         {"*IncomeLossFromContinuingOperationsBefore*", "*ProfitBeforeTax*", "*IncomeBeforeIncomeTax*"},
	"income_tax_expense":        {"*IncomeTaxExpense*", "*IncomeTaxesPaid*", "*TaxExpense*"},
	"net_income":                {"*NetIncomeLoss*", "*ProfitLoss*", "*NetIncome*"},
	"interest_expense":          {"*InterestExpense*", "*FinanceCost*"},
	"ebitda":                    {"*EarningsBeforeInterestTaxes*"},
	"earnings_per_share":        {"*EarningsPerShareDiluted*", "*EarningsPerShareBasic*"},
	"shares_outstanding":        {"*CommonSharesOutstanding*", "*SharesOutstanding*", "*WeightedAverageShares*"},
	"capital_expenditures":      {"*PaymentsToAcquirePropertyPlantAndEquipment*", "*CapitalExpenditure*", "*PurchaseOfPropertyPlantAndEquipment*"},
	"depreciation_amortization": {"*DepreciationAndAmortization*", "*DepreciationDepletionAndAmortization*", "*DepreciationAmortization*"},
	"operating_cash_flow":       {"*NetCashProvidedByOperatingActivities*", "*CashFlowsFromOperatingActivities*", "*OperatingActivitiesCashFlow*"},
	"dividends_paid":            {"*PaymentsOfDividends*", "*DividendsPaid*", "*PaymentsOfOrdinaryDividends*"},
}

// noncurrentComponents must not match a current-portion concept.
var noncurrentComponents = map[string]bool{
	"long_term_debt": true,
}

// noncurrentMarkers keep a concept name acceptable for a noncurrent
// component even when it ends with "current".
var noncurrentMarkers = []string{"noncurrent", "longterm", "long-term"}

// supplementalMarkers flag disclosure concepts that restate a value for a
// different purpose.
var supplementalMarkers = []string{
	"incurredbutnotyetpaid",
	"supplementalschedule",
	"supplementaldisclosure",
	"paidduringperiod",
}

// balanceSheetComponents carry point-in-time balances; a period change
// concept is a weak match for them.
var balanceSheetComponents = map[string]bool{
	"total_assets":         true,
	"current_assets":       true,
	"total_liabilities":    true,
	"current_liabilities":  true,
	"total_equity":         true,
	"cash_and_equivalents": true,
	"inventory":            true,
	"accounts_receivable":  true,
	"accounts_payable":     true,
	"long_term_debt":       true,
	"short_term_debt":      true,
	"total_debt":           true,
}

// changePenalty lowers the confidence of a period-change concept matched
// to a balance-sheet component.
const changePenalty = 15

// unresolvedPenalty lowers the confidence of a flagged match kept for lack
// of an acceptable alternative.
const unresolvedPenalty = 10
