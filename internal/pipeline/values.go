package pipeline

import (
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/lookup"
)

// periodEnds returns the period ends the reconciliation compares at: the
// iXBRL primary instant and duration end, or the lookup's primary period
// when the inline document carries no dated context.
func periodEnds(res *ixbrl.Result, values *lookup.FactValueLookup) map[string]bool {
	out := make(map[string]bool, 2)
	if res != nil && res.Contexts != nil {
		for _, p := range []string{res.Contexts.PrimaryInstant(), res.Contexts.PrimaryDurationEnd()} {
			if p != "" {
				out[p] = true
			}
		}
	}
	if len(out) == 0 && values.PrimaryPeriod() != "" {
		out[values.PrimaryPeriod()] = true
	}
	return out
}

// sourceValues builds the parsed and mapped value maps for the periods,
// keyed by concept. Dimensional facts are left out; the first value per
// concept wins.
func sourceValues(f *Filing, periods map[string]bool) (parsed, mapped map[string]float64) {
	parsed = make(map[string]float64)
	mapped = make(map[string]float64)

	if f.Parsed != nil {
		for _, pf := range f.Parsed.Facts {
			if pf.Value == nil || pf.IsNil || len(pf.Dimensions) > 0 || !periods[pf.PeriodEnd] {
				continue
			}
			if _, dup := parsed[pf.Concept]; !dup {
				parsed[pf.Concept] = *pf.Value
			}
		}
	}
	for _, mf := range f.Mapped.AllFacts() {
		if mf.Value == nil || mf.IsAbstract || len(mf.Dimensions) > 0 || !periods[mf.PeriodEnd] {
			continue
		}
		if _, dup := mapped[mf.Concept]; !dup {
			mapped[mf.Concept] = *mf.Value
		}
	}
	return parsed, mapped
}
