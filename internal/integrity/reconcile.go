package integrity

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
)

// Discrepancy classifies a cross-source comparison.
type Discrepancy string

const (
	ValueMatch    Discrepancy = "VALUE_MATCH"
	SignMismatch  Discrepancy = "SIGN_MISMATCH"
	ScaleMismatch Discrepancy = "SCALE_MISMATCH"
	PrecisionDiff Discrepancy = "PRECISION_DIFF"
)

// Severity of a discrepancy.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityMinor:
		return 1
	}
	return 0
}

// ReconciliationResult compares one iXBRL fact against the parsed and
// mapped sources. CorrectedValue is always the iXBRL value.
type ReconciliationResult struct {
	Concept        string      `json:"concept"`
	ContextRef     string      `json:"context_ref"`
	IXBRLValue     float64     `json:"ixbrl_value"`
	ParsedValue    *float64    `json:"parsed_value"`
	MappedValue    *float64    `json:"mapped_value"`
	CorrectedValue float64     `json:"corrected_value"`
	Discrepancy    Discrepancy `json:"discrepancy"`
	Severity       Severity    `json:"severity"`
	Note           string      `json:"note,omitempty"`
}

// ReconcileSummary counts results per discrepancy kind.
type ReconcileSummary struct {
	Total           int `json:"total"`
	ValueMatches    int `json:"value_matches"`
	SignMismatches  int `json:"sign_mismatches"`
	ScaleMismatches int `json:"scale_mismatches"`
	PrecisionDiffs  int `json:"precision_diffs"`
	Uncompared      int `json:"uncompared"`
}

// Reconciler cross-validates iXBRL values against other sources.
type Reconciler struct {
	// PrecisionTolerance is the relative difference above which two
	// same-signed, same-scale values are a precision difference.
	PrecisionTolerance float64
	// ScaleBand bounds the magnitude ratio; outside [1/ScaleBand,
	// ScaleBand] the values disagree on scale.
	ScaleBand float64
}

// NewReconciler returns a reconciler with a 0.1% precision tolerance and
// a 5x scale band.
func NewReconciler() *Reconciler {
	return &Reconciler{PrecisionTolerance: 0.001, ScaleBand: 5}
}

// Reconcile compares every fact against the parsed and mapped value maps.
// Keys are matched exactly, then by separator variant, then by local name.
func (r *Reconciler) Reconcile(facts []ixbrl.VerifiedFact, parsed, mapped map[string]float64) []ReconciliationResult {
	parsedKeys := newKeyIndex(parsed)
	mappedKeys := newKeyIndex(mapped)

	results := make([]ReconciliationResult, 0, len(facts))
	for _, f := range facts {
		res := ReconciliationResult{
			Concept:        f.Concept,
			ContextRef:     f.ContextRef,
			IXBRLValue:     f.Value,
			CorrectedValue: f.Value,
			Discrepancy:    ValueMatch,
			Severity:       SeverityNone,
		}

		compared := false
		if v, ok := parsedKeys.lookup(f.Concept); ok {
			res.ParsedValue = &v
			r.merge(&res, f.Value, v, "parsed")
			compared = true
		}
		if v, ok := mappedKeys.lookup(f.Concept); ok {
			res.MappedValue = &v
			r.merge(&res, f.Value, v, "mapped")
			compared = true
		}
		if !compared {
			res.Note = "no comparison source"
		}
		results = append(results, res)
	}

	s := Summarize(results)
	zap.L().Info("integrity: reconciliation complete",
		zap.Int("facts", s.Total),
		zap.Int("matches", s.ValueMatches),
		zap.Int("sign_mismatches", s.SignMismatches),
		zap.Int("scale_mismatches", s.ScaleMismatches),
		zap.Int("precision_diffs", s.PrecisionDiffs),
	)
	if s.SignMismatches > 0 {
		zap.L().Warn("integrity: sign mismatches against ixbrl", zap.Int("count", s.SignMismatches))
	}
	return results
}

// merge keeps the worse of the current and the new comparison.
func (r *Reconciler) merge(res *ReconciliationResult, ixbrlValue, other float64, source string) {
	d, sev := r.Classify(ixbrlValue, other)
	if sev.rank() > res.Severity.rank() || (res.Discrepancy == ValueMatch && d != ValueMatch) {
		res.Discrepancy = d
		res.Severity = sev
		if d != ValueMatch {
			res.Note = source
		}
	}
}

// Classify compares an iXBRL value with another source value. Precedence:
// both zero, one zero, opposite signs, magnitude outside the scale band,
// relative difference above tolerance.
func (r *Reconciler) Classify(ixbrlValue, other float64) (Discrepancy, Severity) {
	switch {
	case ixbrlValue == 0 && other == 0:
		return ValueMatch, SeverityNone
	case ixbrlValue == 0 || other == 0:
		return ScaleMismatch, SeverityMinor
	case (ixbrlValue > 0) != (other > 0):
		return SignMismatch, SeverityCritical
	}

	ratio := math.Abs(ixbrlValue / other)
	if ratio > r.ScaleBand || ratio < 1/r.ScaleBand {
		return ScaleMismatch, SeverityMinor
	}
	denom := math.Max(math.Abs(ixbrlValue), math.Abs(other))
	if math.Abs(ixbrlValue-other)/denom > r.PrecisionTolerance {
		return PrecisionDiff, SeverityMinor
	}
	return ValueMatch, SeverityNone
}

// Corrections returns the iXBRL value of every fact that disagreed with a
// source, keyed by concept.
func Corrections(results []ReconciliationResult) map[string]float64 {
	out := make(map[string]float64)
	for _, res := range results {
		if res.Discrepancy == ValueMatch {
			continue
		}
		out[res.Concept] = res.CorrectedValue
	}
	return out
}

// SignCorrections returns the corrections for sign mismatches only.
func SignCorrections(results []ReconciliationResult) map[string]float64 {
	out := make(map[string]float64)
	for _, res := range results {
		if res.Discrepancy == SignMismatch {
			out[res.Concept] = res.CorrectedValue
		}
	}
	return out
}

// VerifiedValues returns the complete corrected value map.
func VerifiedValues(results []ReconciliationResult) map[string]float64 {
	out := make(map[string]float64, len(results))
	for _, res := range results {
		out[res.Concept] = res.CorrectedValue
	}
	return out
}

// Summarize counts results per discrepancy kind.
func Summarize(results []ReconciliationResult) ReconcileSummary {
	s := ReconcileSummary{Total: len(results)}
	for _, res := range results {
		if res.ParsedValue == nil && res.MappedValue == nil {
			s.Uncompared++
			continue
		}
		switch res.Discrepancy {
		case ValueMatch:
			s.ValueMatches++
		case SignMismatch:
			s.SignMismatches++
		case ScaleMismatch:
			s.ScaleMismatches++
		case PrecisionDiff:
			s.PrecisionDiffs++
		}
	}
	return s
}

type keyIndex struct {
	values map[string]float64
	local  map[string]float64
}

func newKeyIndex(values map[string]float64) keyIndex {
	idx := keyIndex{values: values, local: make(map[string]float64, len(values))}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ln := concept.LocalName(k)
		if _, dup := idx.local[ln]; !dup {
			idx.local[ln] = values[k]
		}
	}
	return idx
}

func (k keyIndex) lookup(name string) (float64, bool) {
	if v, ok := k.values[name]; ok {
		return v, true
	}
	if strings.Contains(name, ":") {
		if v, ok := k.values[strings.Replace(name, ":", "_", 1)]; ok {
			return v, true
		}
	}
	if alt := concept.AlternateKey(name); alt != "" {
		if v, ok := k.values[alt]; ok {
			return v, true
		}
	}
	v, ok := k.local[concept.LocalName(name)]
	return v, ok
}
