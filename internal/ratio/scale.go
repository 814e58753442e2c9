package ratio

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

var scaleLabels = map[int]string{0: "units", 3: "thousands", 6: "millions", 9: "billions"}

// ScaleAnnotation shows a ratio rescaled by the filing's declared scales.
// The ratio itself is never modified.
type ScaleAnnotation struct {
	RatioName       string  `json:"ratio_name"`
	RawValue        float64 `json:"raw_value"`
	NormalizedValue float64 `json:"normalized_value"`
	Factor          float64 `json:"factor"`
	NumScale        int     `json:"num_scale"`
	DenScale        int     `json:"den_scale"`
	NumUnit         string  `json:"num_unit"`
	DenUnit         string  `json:"den_unit"`
	Explanation     string  `json:"explanation"`
}

type scaleInfo struct {
	scale int
	unit  string
}

// NormalizeScales annotates valid division ratios whose numerator and
// denominator facts were reported at different iXBRL scales.
func NormalizeScales(ratios []model.RatioResult, matches model.MatchSet, facts []ixbrl.VerifiedFact, defs []Definition) map[string]ScaleAnnotation {
	out := make(map[string]ScaleAnnotation)
	if len(facts) == 0 {
		return out
	}

	byConcept := make(map[string]scaleInfo, len(facts))
	for _, f := range facts {
		if _, ok := byConcept[f.Concept]; !ok {
			byConcept[f.Concept] = scaleInfo{scale: f.Scale, unit: f.UnitRef}
		}
	}
	lookup := make(map[string]*model.ComponentMatch, len(matches))
	for _, m := range matches {
		if m.Matched {
			lookup[m.ComponentName] = m
		}
	}
	defByName := make(map[string]Definition, len(defs))
	for _, d := range defs {
		defByName[d.Name] = d
	}

	for _, r := range ratios {
		if !r.Valid || r.Value == nil {
			continue
		}
		def, ok := defByName[r.RatioName]
		if !ok || def.Type() != CalcDivision {
			continue
		}
		num, nok := operandScale(def.Numerator, lookup, byConcept)
		den, dok := operandScale(def.Denominator, lookup, byConcept)
		if !nok || !dok {
			continue
		}
		diff := num.scale - den.scale
		if diff == 0 {
			continue
		}
		factor := math.Pow10(diff)
		out[r.RatioName] = ScaleAnnotation{
			RatioName:       r.RatioName,
			RawValue:        *r.Value,
			NormalizedValue: *r.Value * factor,
			Factor:          factor,
			NumScale:        num.scale,
			DenScale:        den.scale,
			NumUnit:         num.unit,
			DenUnit:         den.unit,
			Explanation:     explain(num, den, factor),
		}
	}

	if len(out) > 0 {
		zap.L().Info("ratio: cross-scale ratios annotated", zap.Int("count", len(out)))
	}
	return out
}

// operandScale takes the first term in the operand that resolves to an
// atomic concept with a reported fact.
func operandScale(op Operand, lookup map[string]*model.ComponentMatch, facts map[string]scaleInfo) (scaleInfo, bool) {
	for _, name := range op.Names() {
		m, ok := lookup[name]
		if !ok || m.MatchedConcept == "" || m.IsComposite() {
			continue
		}
		if info, ok := facts[m.MatchedConcept]; ok {
			return info, true
		}
	}
	return scaleInfo{}, false
}

func scaleLabel(scale int) string {
	if l, ok := scaleLabels[scale]; ok {
		return l
	}
	return fmt.Sprintf("10^%d", scale)
}

func explain(num, den scaleInfo, factor float64) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	b.WriteString(p.Sprintf("x%.0f", factor))
	fmt.Fprintf(&b, ": %s (%s) / %s (%s)", num.unit, scaleLabel(num.scale), den.unit, scaleLabel(den.scale))
	return b.String()
}
