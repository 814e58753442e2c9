package model

// RatioResult is one computed ratio.
type RatioResult struct {
	RatioID          string   `json:"ratio_id"`
	RatioName        string   `json:"ratio_name"`
	Category         string   `json:"category,omitempty"`
	Value            *float64 `json:"value"`
	Formula          string   `json:"formula"`
	Numerator        string   `json:"numerator"`
	Denominator      string   `json:"denominator"`
	NumeratorValue   *float64 `json:"numerator_value"`
	DenominatorValue *float64 `json:"denominator_value"`
	Valid            bool     `json:"valid"`
	Error            string   `json:"error,omitempty"`
}

// Severity grades an identity check outcome.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IdentityCheck is one accounting identity verification.
type IdentityCheck struct {
	Identity     string   `json:"identity"`
	LHSLabel     string   `json:"lhs_label"`
	RHSLabel     string   `json:"rhs_label"`
	LHSValue     *float64 `json:"lhs_value"`
	RHSValue     *float64 `json:"rhs_value"`
	Difference   float64  `json:"difference"`
	RelativeDiff float64  `json:"relative_diff"`
	Passed       bool     `json:"passed"`
	Severity     Severity `json:"severity"`
	Skipped      bool     `json:"skipped"`
	SkipReason   string   `json:"skip_reason,omitempty"`
}
