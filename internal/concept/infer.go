package concept

import (
	"regexp"
	"strings"
)

// Balance and period values.
const (
	BalanceDebit   = "debit"
	BalanceCredit  = "credit"
	PeriodInstant  = "instant"
	PeriodDuration = "duration"
	DataMonetary   = "monetary"
	DataShares     = "shares"
	DataPerShare   = "per_share"
	DataPure       = "pure"
)

// Keyword lists are checked in order; earlier lists win so that
// "IncomeTaxExpenseBenefit" is a debit and
// "PaymentsToAcquirePropertyPlantAndEquipment" is a duration.
var (
	strongDebitKeywords = []string{"expense", "cost", "purchase", "payment", "depreciation", "amortization", "prepaid"}
	creditKeywords      = []string{"liabilities", "liability", "revenue", "income", "gain", "payable", "equity", "capital", "retained", "earnings", "accumulated", "provision", "reserve", "profit"}
	debitKeywords       = []string{"assets", "loss", "receivable", "inventory", "equipment", "property", "dividend"}

	strongDurationKeywords = []string{"payment", "proceeds", "purchase", "repayment", "issuance", "acquisition", "activities"}
	instantKeywords        = []string{"assets", "liabilities", "equity", "balance", "receivable", "payable", "inventory", "cash", "property", "equipment", "accumulated"}
	durationKeywords       = []string{"revenue", "expense", "income", "cost", "sales", "gain", "loss", "earnings", "profit", "margin"}
)

// InferBalance guesses the balance type from the local name. Returns ""
// when no keyword applies.
func InferBalance(local string) string {
	lower := strings.ToLower(local)
	switch {
	case containsAny(lower, strongDebitKeywords):
		return BalanceDebit
	case containsAny(lower, creditKeywords):
		return BalanceCredit
	case containsAny(lower, debitKeywords):
		return BalanceDebit
	}
	return ""
}

// InferPeriod guesses the period type from the local name. Returns ""
// when no keyword applies.
func InferPeriod(local string) string {
	lower := strings.ToLower(local)
	switch {
	case containsAny(lower, strongDurationKeywords):
		return PeriodDuration
	case containsAny(lower, instantKeywords):
		return PeriodInstant
	case containsAny(lower, durationKeywords):
		return PeriodDuration
	}
	return ""
}

// IsAbstractName reports whether a local name denotes an abstract
// grouping concept.
func IsAbstractName(local string) bool {
	return strings.HasSuffix(local, "Abstract") || strings.HasPrefix(strings.ToLower(local), "root")
}

// InferDataType classifies a unit reference.
func InferDataType(unit string) string {
	u := strings.ToLower(unit)
	switch {
	case u == "":
		return ""
	case strings.Contains(u, "pershare") || strings.Contains(u, "/shares") || strings.Contains(u, "per_share") || strings.Contains(u, "usdpershare"):
		return DataPerShare
	case strings.Contains(u, "share"):
		return DataShares
	case u == "pure" || strings.Contains(u, "percent"):
		return DataPure
	}
	return DataMonetary
}

var (
	camelLower = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	camelUpper = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
)

// GenerateLabel turns a CamelCase local name into words, e.g.
// "AssetsCurrent" -> "Assets Current".
func GenerateLabel(local string) string {
	s := strings.ReplaceAll(local, "_", " ")
	s = camelUpper.ReplaceAllString(s, "$1 $2")
	s = camelLower.ReplaceAllString(s, "$1 $2")
	return strings.Join(strings.Fields(s), " ")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
