// Package lookup indexes numeric fact values by concept and period and
// answers value queries for matched concepts.
package lookup

import (
	"sort"

	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

// Source names recorded on each value.
const (
	SourceParsed = "parsed"
	SourceMapped = "mapped"
)

// FactValue is one numeric value with its context.
type FactValue struct {
	Concept     string            `json:"concept"`
	Value       float64           `json:"value"`
	PeriodEnd   string            `json:"period_end,omitempty"`
	PeriodStart string            `json:"period_start,omitempty"`
	Dimensions  map[string]string `json:"dimensions,omitempty"`
	Unit        string            `json:"unit,omitempty"`
	Source      string            `json:"source"`
	IsPrimary   bool              `json:"is_primary"`

	dimKey string
}

// Summary describes the loaded values.
type Summary struct {
	ConceptsWithValues int    `json:"concepts_with_values"`
	TotalValues        int    `json:"total_values"`
	PrimaryValues      int    `json:"primary_values"`
	PrimaryPeriod      string `json:"primary_period"`
	AvailablePeriods   int    `json:"available_periods"`
}

// FactValueLookup holds the values of one filing. It is not safe for
// concurrent mutation.
type FactValueLookup struct {
	index   map[string][]*FactValue
	keys    []string
	periods map[string]bool
	primary string
}

// New creates an empty lookup.
func New() *FactValueLookup {
	return &FactValueLookup{
		index:   make(map[string][]*FactValue),
		periods: make(map[string]bool),
	}
}

// LoadFromFiling replaces the lookup contents. Parsed facts load first;
// mapped facts supplement them. Returns the number of concepts with
// values.
func (l *FactValueLookup) LoadFromFiling(mapped *model.MappedFiling, parsed *model.ParsedFiling) int {
	l.index = make(map[string][]*FactValue)
	l.keys = nil
	l.periods = make(map[string]bool)

	parsedCount := 0
	if parsed != nil {
		for _, f := range parsed.Facts {
			if f.IsNil || f.IsAbstract || f.Value == nil {
				continue
			}
			if l.add(&FactValue{
				Concept:     f.Concept,
				Value:       *f.Value,
				PeriodEnd:   f.PeriodEnd,
				PeriodStart: f.PeriodStart,
				Dimensions:  f.Dimensions,
				Unit:        f.Unit,
				Source:      SourceParsed,
			}) {
				parsedCount++
			}
		}
	}

	mappedCount := 0
	for _, f := range mapped.AllFacts() {
		if f.IsAbstract || f.Value == nil {
			continue
		}
		if l.add(&FactValue{
			Concept:     f.Concept,
			Value:       *f.Value,
			PeriodEnd:   f.PeriodEnd,
			PeriodStart: f.PeriodStart,
			Dimensions:  f.Dimensions,
			Unit:        f.Unit,
			Source:      SourceMapped,
		}) {
			mappedCount++
		}
	}

	l.primary = ""
	if periods := l.AvailablePeriods(); len(periods) > 0 {
		l.primary = periods[0]
	}

	zap.L().Info("lookup: values loaded",
		zap.Int("parsed", parsedCount),
		zap.Int("mapped", mappedCount),
		zap.Int("concepts", len(l.index)),
		zap.String("primary_period", l.primary),
	)
	return len(l.index)
}

// add indexes v unless the concept already has a value for the same
// period end and dimensions.
func (l *FactValueLookup) add(v *FactValue) bool {
	if v.Concept == "" {
		return false
	}
	v.dimKey = model.DimensionKey(v.Dimensions)
	v.IsPrimary = v.dimKey == ""
	if v.PeriodEnd != "" {
		l.periods[v.PeriodEnd] = true
	}

	existing, ok := l.index[v.Concept]
	if !ok {
		l.keys = append(l.keys, v.Concept)
	}
	for _, e := range existing {
		if e.PeriodEnd == v.PeriodEnd && e.dimKey == v.dimKey {
			return false
		}
	}
	l.index[v.Concept] = append(existing, v)
	return true
}

// candidates resolves a concept by exact key, separator variant, then
// local name.
func (l *FactValueLookup) candidates(name string) []*FactValue {
	if vals := l.index[name]; len(vals) > 0 {
		return vals
	}
	if alt := concept.AlternateKey(name); alt != "" {
		if vals := l.index[alt]; len(vals) > 0 {
			return vals
		}
	}
	local := concept.LocalName(name)
	for _, k := range l.keys {
		if concept.LocalName(k) == local {
			return l.index[k]
		}
	}
	return nil
}

// narrow applies the soft period and primary-context filters. A filter
// that would empty the set is skipped.
func narrow(vals []*FactValue, period string, preferPrimary bool) *FactValue {
	if len(vals) == 0 {
		return nil
	}
	if period != "" {
		var inPeriod []*FactValue
		for _, v := range vals {
			if v.PeriodEnd == period {
				inPeriod = append(inPeriod, v)
			}
		}
		if len(inPeriod) > 0 {
			vals = inPeriod
		}
	}
	if preferPrimary {
		var primary []*FactValue
		for _, v := range vals {
			if v.IsPrimary {
				primary = append(primary, v)
			}
		}
		if len(primary) > 0 {
			vals = primary
		}
	}
	return vals[0]
}

// Value returns the value of a concept. An empty periodEnd targets the
// primary period.
func (l *FactValueLookup) Value(name, periodEnd string, preferPrimary bool) (float64, bool) {
	if periodEnd == "" {
		periodEnd = l.primary
	}
	v := narrow(l.candidates(name), periodEnd, preferPrimary)
	if v == nil {
		return 0, false
	}
	return v.Value, true
}

// Get returns the primary-period, primary-context value of a concept.
func (l *FactValueLookup) Get(name string) (float64, bool) {
	return l.Value(name, "", true)
}

// ApplyCorrections overrides the best value of each concept in
// corrections. Returns the number of values changed.
func (l *FactValueLookup) ApplyCorrections(corrections map[string]float64) int {
	names := make([]string, 0, len(corrections))
	for k := range corrections {
		names = append(names, k)
	}
	sort.Strings(names)

	corrected, notFound := 0, 0
	for _, name := range names {
		target := narrow(l.candidates(name), l.primary, true)
		if target == nil {
			notFound++
			zap.L().Debug("lookup: correction target not indexed", zap.String("concept", name))
			continue
		}
		want := corrections[name]
		if target.Value == want {
			continue
		}
		zap.L().Info("lookup: value corrected",
			zap.String("concept", name),
			zap.Float64("from", target.Value),
			zap.Float64("to", want),
		)
		target.Value = want
		corrected++
	}
	if notFound > 0 {
		zap.L().Debug("lookup: corrections without target", zap.Int("count", notFound))
	}
	return corrected
}

// AllValues returns every value of a concept under its exact key.
func (l *FactValueLookup) AllValues(name string) []FactValue {
	vals := l.index[name]
	out := make([]FactValue, len(vals))
	for i, v := range vals {
		out[i] = *v
	}
	return out
}

// PrimaryPeriod returns the latest period end, or "".
func (l *FactValueLookup) PrimaryPeriod() string { return l.primary }

// AvailablePeriods returns every observed period end, latest first.
func (l *FactValueLookup) AvailablePeriods() []string {
	out := make([]string, 0, len(l.periods))
	for p := range l.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return ixbrl.CompareDates(out[i], out[j]) > 0 })
	return out
}

// ConceptCount returns the number of concepts with values.
func (l *FactValueLookup) ConceptCount() int { return len(l.index) }

// HasValue reports whether any form of the concept has a value.
func (l *FactValueLookup) HasValue(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Summary describes the loaded values.
func (l *FactValueLookup) Summary() Summary {
	s := Summary{
		ConceptsWithValues: len(l.index),
		PrimaryPeriod:      l.primary,
		AvailablePeriods:   len(l.periods),
	}
	for _, vals := range l.index {
		s.TotalValues += len(vals)
		for _, v := range vals {
			if v.IsPrimary {
				s.PrimaryValues++
			}
		}
	}
	return s
}
