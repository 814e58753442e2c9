// Package ratio computes financial ratios from populated component
// matches, selects the ratio model for a filing's industry and annotates
// cross-scale ratios.
package ratio

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

type calculator func(def Definition, lookup map[string]*model.ComponentMatch) model.RatioResult

// Engine evaluates ratio definitions against a match set.
type Engine struct {
	composites map[string]calculator
}

// NewEngine returns an engine with every composite calculator registered.
func NewEngine() *Engine {
	return &Engine{composites: map[string]calculator{
		CalcAbsolute:            calcAbsolute,
		CalcROIC:                calcROIC,
		CalcDuPont:              calcDuPont,
		CalcAltmanZ:             calcAltmanZ,
		CalcCashConversionCycle: calcCashConversionCycle,
	}}
}

// Calculate computes one result per definition, in definition order.
// Only matched components are visible to the calculation.
func (e *Engine) Calculate(matches model.MatchSet, defs []Definition) []model.RatioResult {
	lookup := make(map[string]*model.ComponentMatch, len(matches))
	for _, m := range matches {
		if m.Matched {
			lookup[m.ComponentName] = m
		}
	}

	out := make([]model.RatioResult, 0, len(defs))
	valid := 0
	for _, def := range defs {
		r := e.calculate(def, lookup)
		guardFinite(&r)
		if r.Valid {
			valid++
		}
		out = append(out, r)
	}

	zap.L().Debug("ratio: calculated",
		zap.Int("ratios", len(out)),
		zap.Int("valid", valid),
	)
	return out
}

func (e *Engine) calculate(def Definition, lookup map[string]*model.ComponentMatch) model.RatioResult {
	kind := def.Type()
	if kind == CalcDivision {
		return calcDivision(def, lookup)
	}
	calc, ok := e.composites[kind]
	if !ok {
		r := newResult(def)
		r.Error = "Unknown calculation_type: " + kind
		return r
	}
	return calc(def, lookup)
}

func newResult(def Definition) model.RatioResult {
	return model.RatioResult{
		RatioID:   def.ID,
		RatioName: def.Name,
		Category:  def.Category,
		Formula:   def.Formula,
	}
}

// guardFinite downgrades any non-finite outcome to an error.
func guardFinite(r *model.RatioResult) {
	if r.Value == nil {
		return
	}
	if math.IsNaN(*r.Value) || math.IsInf(*r.Value, 0) {
		r.Value = nil
		r.Valid = false
		r.Error = "Non-finite result"
	}
}

func calcDivision(def Definition, lookup map[string]*model.ComponentMatch) model.RatioResult {
	r := newResult(def)

	num := resolve(def.Numerator, lookup)
	r.Numerator = num.formula
	if num.err != "" {
		r.NumeratorValue = num.value
		r.Error = num.err
		return r
	}
	r.NumeratorValue = num.value

	den := resolve(def.Denominator, lookup)
	r.Denominator = den.formula
	if den.err != "" {
		r.DenominatorValue = den.value
		r.Error = den.err
		return r
	}
	r.DenominatorValue = den.value

	if r.NumeratorValue == nil || r.DenominatorValue == nil {
		r.Error = "Values not available for matched components"
		return r
	}
	if *r.DenominatorValue == 0 {
		r.Error = "Division by zero"
		return r
	}
	scale := def.ScaleFactor
	if scale == 0 {
		scale = 1
	}
	r.Value = model.Float(*r.NumeratorValue / *r.DenominatorValue * scale)
	r.Valid = true
	return r
}

type resolved struct {
	value   *float64
	formula string
	err     string
}

// resolve evaluates an operand. A single name that is not matched is an
// error; a term list sums what it can and lists what it could not.
func resolve(op Operand, lookup map[string]*model.ComponentMatch) resolved {
	if op.Empty() {
		return resolved{err: "Invalid component definition"}
	}
	if !op.List {
		name := op.Terms[0]
		m, ok := lookup[name]
		if !ok {
			return resolved{formula: name, err: fmt.Sprintf("Component '%s' not matched", name)}
		}
		return resolved{value: m.Value, formula: name}
	}

	var (
		total   *float64
		parts   []string
		missing []string
	)
	for _, item := range op.Terms {
		sign := 1.0
		name := item
		switch {
		case strings.HasPrefix(item, "-"):
			sign, name = -1, item[1:]
			parts = append(parts, "- "+name)
		case strings.HasPrefix(item, "+"):
			name = item[1:]
			parts = append(parts, "+ "+name)
		case len(parts) > 0:
			parts = append(parts, "+ "+name)
		default:
			parts = append(parts, name)
		}

		m, ok := lookup[name]
		switch {
		case !ok:
			missing = append(missing, name+" (not matched)")
		case m.Value == nil:
			missing = append(missing, name+" (no value)")
		default:
			if total == nil {
				total = model.Float(0)
			}
			*total += sign * *m.Value
		}
	}

	out := resolved{value: total, formula: strings.Join(parts, " ")}
	if len(missing) > 0 {
		out.err = "Missing: " + strings.Join(missing, ", ")
	}
	return out
}

func valueOf(name string, lookup map[string]*model.ComponentMatch) (float64, bool) {
	m, ok := lookup[name]
	if !ok || m.Value == nil {
		return 0, false
	}
	return *m.Value, true
}

// missingInputs lists the names that are unmatched or have no value.
func missingInputs(names []string, lookup map[string]*model.ComponentMatch) []string {
	var out []string
	for _, n := range names {
		if _, ok := valueOf(n, lookup); !ok {
			out = append(out, n)
		}
	}
	return out
}
