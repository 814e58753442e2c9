package integrity

import (
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

// DefaultIdentityTolerance is the relative tolerance for equality checks.
const DefaultIdentityTolerance = 0.005

// SubsetTolerance is how far a part may exceed its whole.
const SubsetTolerance = 0.05

// escalation is the multiple of the tolerance above which a failed
// equality check becomes an error instead of a warning.
const escalation = 5

var titleCaser = cases.Title(language.English)

// IdentityComponents are the components the identity checks read.
var IdentityComponents = []string{
	"total_assets", "total_liabilities", "total_equity",
	"current_assets", "current_liabilities",
	"revenue", "cost_of_goods_sold", "gross_profit",
}

// ValidateIdentities runs the fixed set of accounting identity checks
// against populated component values. A tolerance <= 0 uses the default.
func ValidateIdentities(values map[string]*float64, tolerance float64) []model.IdentityCheck {
	if tolerance <= 0 {
		tolerance = DefaultIdentityTolerance
	}
	v := identityValues(values)
	checks := []model.IdentityCheck{
		v.balanceSheet(tolerance),
		v.grossProfit(tolerance),
		v.subset("current_assets", "total_assets"),
		v.subset("current_liabilities", "total_liabilities"),
		v.assetsPositive(),
		v.equitySign(),
	}
	logIdentities(checks)
	return checks
}

type identityValues map[string]*float64

func (v identityValues) get(key string) (float64, bool) {
	p := v[key]
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (v identityValues) missing(keys ...string) string {
	var out []string
	for _, k := range keys {
		if v[k] == nil {
			out = append(out, k)
		}
	}
	return "Missing: " + strings.Join(out, ", ")
}

func (v identityValues) balanceSheet(tol float64) model.IdentityCheck {
	c := model.IdentityCheck{
		Identity: "Assets = Liabilities + Equity",
		LHSLabel: "Total Assets",
		RHSLabel: "Total Liabilities + Total Equity",
	}
	a, okA := v.get("total_assets")
	l, okL := v.get("total_liabilities")
	e, okE := v.get("total_equity")
	if !okA || !okL || !okE {
		return skip(c, v.missing("total_assets", "total_liabilities", "total_equity"))
	}
	return evaluateEquality(c, a, l+e, tol)
}

func (v identityValues) grossProfit(tol float64) model.IdentityCheck {
	c := model.IdentityCheck{
		Identity: "Revenue - COGS = Gross Profit",
		LHSLabel: "Revenue - COGS",
		RHSLabel: "Gross Profit",
	}
	r, okR := v.get("revenue")
	cogs, okC := v.get("cost_of_goods_sold")
	gp, okG := v.get("gross_profit")
	if !okR || !okC || !okG {
		return skip(c, v.missing("revenue", "cost_of_goods_sold", "gross_profit"))
	}
	return evaluateEquality(c, r-cogs, gp, tol)
}

func (v identityValues) subset(part, whole string) model.IdentityCheck {
	partLabel, wholeLabel := ComponentTitle(part), ComponentTitle(whole)
	c := model.IdentityCheck{
		Identity: partLabel + " <= " + wholeLabel,
		LHSLabel: partLabel,
		RHSLabel: wholeLabel,
	}
	p, okP := v.get(part)
	w, okW := v.get(whole)
	if !okP || !okW {
		return skip(c, v.missing(part, whole))
	}

	lhs, rhs := math.Abs(p), math.Abs(w)
	c.LHSValue, c.RHSValue = model.Float(lhs), model.Float(rhs)
	c.Difference = lhs - rhs
	if rhs == 0 {
		c.Passed = lhs == 0
	} else {
		c.RelativeDiff = math.Max(0, lhs-rhs) / rhs
		c.Passed = c.RelativeDiff <= SubsetTolerance
	}
	c.Severity = model.SeverityOK
	if !c.Passed {
		c.Severity = model.SeverityWarning
	}
	return c
}

func (v identityValues) assetsPositive() model.IdentityCheck {
	c := model.IdentityCheck{
		Identity: "Total Assets > 0",
		LHSLabel: "Total Assets",
		RHSLabel: "0",
	}
	a, ok := v.get("total_assets")
	if !ok {
		return skip(c, "total_assets not available")
	}
	c.LHSValue, c.RHSValue = model.Float(a), model.Float(0)
	c.Difference = a
	c.Passed = a > 0
	c.Severity = model.SeverityOK
	if !c.Passed {
		c.Severity = model.SeverityError
	}
	return c
}

// equitySign is exempt when either magnitude is below one unit.
func (v identityValues) equitySign() model.IdentityCheck {
	c := model.IdentityCheck{
		Identity: "sign(Equity) = sign(Assets - Liabilities)",
		LHSLabel: "Equity sign",
		RHSLabel: "Assets - Liabilities sign",
	}
	a, okA := v.get("total_assets")
	l, okL := v.get("total_liabilities")
	e, okE := v.get("total_equity")
	if !okA || !okL || !okE {
		return skip(c, v.missing("total_assets", "total_liabilities", "total_equity"))
	}

	implied := a - l
	c.LHSValue, c.RHSValue = model.Float(e), model.Float(implied)
	c.Difference = math.Abs(e - implied)
	if math.Abs(implied) < 1 || math.Abs(e) < 1 {
		c.Passed = true
	} else {
		c.Passed = (e > 0) == (implied > 0)
	}
	c.Severity = model.SeverityOK
	if !c.Passed {
		c.Severity = model.SeverityError
	}
	return c
}

func evaluateEquality(c model.IdentityCheck, lhs, rhs, tol float64) model.IdentityCheck {
	c.LHSValue, c.RHSValue = model.Float(lhs), model.Float(rhs)
	c.Difference = math.Abs(lhs - rhs)
	denom := math.Max(math.Abs(lhs), math.Abs(rhs))
	if denom == 0 {
		c.Passed, c.Severity = true, model.SeverityOK
		return c
	}
	c.RelativeDiff = c.Difference / denom
	switch {
	case c.RelativeDiff <= tol:
		c.Passed, c.Severity = true, model.SeverityOK
	case c.RelativeDiff <= tol*escalation:
		c.Passed, c.Severity = false, model.SeverityWarning
	default:
		c.Passed, c.Severity = false, model.SeverityError
	}
	return c
}

func skip(c model.IdentityCheck, reason string) model.IdentityCheck {
	c.Skipped = true
	c.SkipReason = reason
	c.Severity = model.SeverityOK
	return c
}

// ComponentTitle renders a component id as a title, e.g.
// "current_assets" -> "Current Assets".
func ComponentTitle(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

func logIdentities(checks []model.IdentityCheck) {
	passed, failed, skipped := 0, 0, 0
	for _, c := range checks {
		switch {
		case c.Skipped:
			skipped++
		case c.Passed:
			passed++
		default:
			failed++
			zap.L().Warn("integrity: identity failed",
				zap.String("identity", c.Identity),
				zap.Float64p("lhs", c.LHSValue),
				zap.Float64p("rhs", c.RHSValue),
				zap.Float64("diff", c.Difference),
				zap.String("severity", string(c.Severity)),
			)
		}
	}
	zap.L().Info("integrity: identity validation",
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
	)
}
