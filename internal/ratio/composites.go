package ratio

import (
	"fmt"
	"math"
	"strings"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

const daysInYear = 365

// values fetches the named inputs or reports the absent ones.
func values(r *model.RatioResult, names []string, lookup map[string]*model.ComponentMatch) ([]float64, bool) {
	if missing := missingInputs(names, lookup); len(missing) > 0 {
		r.Error = "Missing: " + strings.Join(missing, ", ")
		return nil, false
	}
	out := make([]float64, len(names))
	for i, n := range names {
		out[i], _ = valueOf(n, lookup)
	}
	return out, true
}

func zeroError(r *model.RatioResult, names []string, vals []float64) bool {
	var zeros []string
	for i, v := range vals {
		if v == 0 {
			zeros = append(zeros, names[i])
		}
	}
	if len(zeros) == 0 {
		return false
	}
	r.Error = "Zero value: " + strings.Join(zeros, ", ")
	return true
}

// calcAbsolute evaluates the numerator with no division.
func calcAbsolute(def Definition, lookup map[string]*model.ComponentMatch) model.RatioResult {
	r := newResult(def)
	num := resolve(def.Numerator, lookup)
	r.Numerator = num.formula
	if num.err != "" {
		r.Error = num.err
		return r
	}
	r.NumeratorValue = num.value
	r.Value = num.value
	r.Valid = num.value != nil
	if !r.Valid {
		r.Error = "Values not available for matched components"
	}
	return r
}

// calcROIC divides NOPAT by invested capital. Debt and cash count as zero
// when absent.
func calcROIC(def Definition, lookup map[string]*model.ComponentMatch) model.RatioResult {
	r := newResult(def)
	v, ok := values(&r, []string{"operating_income", "income_tax_expense", "income_before_tax", "total_equity"}, lookup)
	if !ok {
		return r
	}
	oi, tax, ebt, equity := v[0], v[1], v[2], v[3]
	debt, _ := valueOf("total_debt", lookup)
	cash, _ := valueOf("cash_and_equivalents", lookup)

	if ebt == 0 {
		r.Error = "Income before tax is zero"
		return r
	}
	nopat := oi * (1 - math.Abs(tax)/math.Abs(ebt))
	invested := equity + debt - cash

	r.Numerator = "NOPAT"
	r.NumeratorValue = model.Float(nopat)
	r.Denominator = "Invested Capital"
	r.DenominatorValue = model.Float(invested)
	if invested == 0 {
		r.Error = "Invested capital is zero"
		return r
	}
	r.Value = model.Float(nopat / invested)
	r.Valid = true
	return r
}

// calcDuPont multiplies the five ROE factors.
func calcDuPont(def Definition, lookup map[string]*model.ComponentMatch) model.RatioResult {
	r := newResult(def)
	names := []string{"net_income", "income_before_tax", "operating_income", "revenue", "total_assets", "total_equity"}
	v, ok := values(&r, names, lookup)
	if !ok {
		return r
	}
	if zeroError(&r, names[1:], v[1:]) {
		return r
	}
	ni, ebt, ebit, rev, ta, eq := v[0], v[1], v[2], v[3], v[4], v[5]

	product := (ni / ebt) * (ebt / ebit) * (ebit / rev) * (rev / ta) * (ta / eq)
	r.Numerator = "NI/EBT * EBT/EBIT * EBIT/Rev"
	r.Denominator = "Rev/TA * TA/Eq"
	r.Value = model.Float(product)
	r.Valid = true
	return r
}

// calcAltmanZ scores bankruptcy risk with book equity as the market value
// proxy.
func calcAltmanZ(def Definition, lookup map[string]*model.ComponentMatch) model.RatioResult {
	r := newResult(def)
	v, ok := values(&r, []string{
		"current_assets", "current_liabilities", "retained_earnings", "total_assets",
		"operating_income", "total_equity", "total_liabilities", "revenue",
	}, lookup)
	if !ok {
		return r
	}
	ca, cl, re, ta, ebit, eq, tl, rev := v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]
	if ta == 0 {
		r.Error = "Total assets is zero"
		return r
	}
	if tl == 0 {
		r.Error = "Total liabilities is zero"
		return r
	}

	a := 1.2 * ((ca - cl) / ta)
	b := 1.4 * (re / ta)
	c := 3.3 * (ebit / ta)
	d := 0.6 * (eq / tl)
	e := 1.0 * (rev / ta)

	r.Numerator = fmt.Sprintf("A=%.3f B=%.3f C=%.3f", a, b, c)
	r.Denominator = fmt.Sprintf("D=%.3f E=%.3f", d, e)
	r.Value = model.Float(a + b + c + d + e)
	r.Valid = true
	return r
}

// calcCashConversionCycle is DIO + DSO - DPO in days.
func calcCashConversionCycle(def Definition, lookup map[string]*model.ComponentMatch) model.RatioResult {
	r := newResult(def)
	v, ok := values(&r, []string{"inventory", "cost_of_goods_sold", "accounts_receivable", "revenue", "accounts_payable"}, lookup)
	if !ok {
		return r
	}
	inv, cogs, ar, rev, ap := v[0], v[1], v[2], v[3], v[4]
	if zeroError(&r, []string{"cost_of_goods_sold", "revenue"}, []float64{cogs, rev}) {
		return r
	}

	dio := inv / cogs * daysInYear
	dso := ar / rev * daysInYear
	dpo := ap / cogs * daysInYear

	r.Numerator = fmt.Sprintf("DIO=%.1f DSO=%.1f", dio, dso)
	r.Denominator = fmt.Sprintf("DPO=%.1f", dpo)
	r.Value = model.Float(dio + dso - dpo)
	r.Valid = true
	return r
}
