package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// Market identifies the reporting regime of a filing.
type Market string

const (
	MarketSEC    Market = "sec"
	MarketESEF   Market = "esef"
	MarketUKGAAP Market = "uk_gaap"
)

// FilingMeta describes where a filing came from.
type FilingMeta struct {
	FilingID string `json:"filing_id" yaml:"filing_id"`
	Company  string `json:"company" yaml:"company"`
	Market   Market `json:"market" yaml:"market"`
	Form     string `json:"form" yaml:"form"`
	Date     string `json:"date" yaml:"date"`
}

// ParsedContext is one context from the parsed filing source.
type ParsedContext struct {
	ID         string            `json:"id"`
	PeriodType string            `json:"period_type"`
	Instant    string            `json:"instant,omitempty"`
	StartDate  string            `json:"start_date,omitempty"`
	EndDate    string            `json:"end_date,omitempty"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

// ParsedFact is one fact from the parsed filing source, normalized.
type ParsedFact struct {
	Concept     string            `json:"concept"`
	Value       *float64          `json:"value"`
	Unit        string            `json:"unit,omitempty"`
	Decimals    string            `json:"decimals,omitempty"`
	ContextRef  string            `json:"context_ref,omitempty"`
	PeriodType  string            `json:"period_type,omitempty"`
	PeriodStart string            `json:"period_start,omitempty"`
	PeriodEnd   string            `json:"period_end,omitempty"`
	Dimensions  map[string]string `json:"dimensions,omitempty"`
	IsNil       bool              `json:"is_nil,omitempty"`
	IsAbstract  bool              `json:"is_abstract,omitempty"`
}

// ParsedFiling holds every fact and context of the parsed source.
type ParsedFiling struct {
	Contexts map[string]ParsedContext `json:"contexts"`
	Facts    []ParsedFact             `json:"facts"`
}

// MappedFact is one line of a mapped statement, normalized.
type MappedFact struct {
	Concept       string            `json:"concept"`
	Label         string            `json:"label,omitempty"`
	Value         *float64          `json:"value"`
	PeriodStart   string            `json:"period_start,omitempty"`
	PeriodEnd     string            `json:"period_end,omitempty"`
	Dimensions    map[string]string `json:"dimensions,omitempty"`
	Unit          string            `json:"unit,omitempty"`
	Decimals      string            `json:"decimals,omitempty"`
	Sign          int               `json:"sign,omitempty"`
	Scale         int               `json:"scale,omitempty"`
	IsAbstract    bool              `json:"is_abstract,omitempty"`
	Level         int               `json:"level"`
	ParentConcept string            `json:"parent_concept,omitempty"`
	Order         float64           `json:"order"`
	Statement     string            `json:"statement,omitempty"`
}

// MappedStatement is one mapped financial statement.
type MappedStatement struct {
	Name  string       `json:"name"`
	Facts []MappedFact `json:"facts"`
}

// MappedFiling holds every mapped statement of a filing.
type MappedFiling struct {
	Statements []MappedStatement `json:"statements"`
}

// AllFacts flattens the statements, tagging each fact with its statement.
func (m *MappedFiling) AllFacts() []MappedFact {
	if m == nil {
		return nil
	}
	var out []MappedFact
	for _, st := range m.Statements {
		for _, f := range st.Facts {
			if f.Statement == "" {
				f.Statement = st.Name
			}
			out = append(out, f)
		}
	}
	return out
}

// DimensionKey returns a stable key for a dimension set. Empty when
// there are no dimensions.
func DimensionKey(dims map[string]string) string {
	if len(dims) == 0 {
		return ""
	}
	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(dims[k])
	}
	return b.String()
}

// DecodeParsed decodes a parsed filing document. Alternate key names are
// normalized and fact periods are resolved from their contexts.
func DecodeParsed(data []byte) (*ParsedFiling, error) {
	var raw struct {
		Contexts map[string]map[string]any `json:"contexts"`
		Facts    []map[string]any          `json:"facts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	pf := &ParsedFiling{Contexts: make(map[string]ParsedContext, len(raw.Contexts))}
	for id, rc := range raw.Contexts {
		pf.Contexts[id] = normalizeContext(id, rc)
	}
	for _, rf := range raw.Facts {
		f, ok := NormalizeParsedFact(rf)
		if !ok {
			continue
		}
		pf.Facts = append(pf.Facts, f)
	}
	pf.ResolvePeriods()
	return pf, nil
}

// ResolvePeriods fills fact period and dimension fields from the
// referenced context when the fact does not carry them itself.
func (p *ParsedFiling) ResolvePeriods() {
	for i := range p.Facts {
		f := &p.Facts[i]
		ctx, ok := p.Contexts[f.ContextRef]
		if !ok {
			continue
		}
		if f.PeriodType == "" {
			f.PeriodType = ctx.PeriodType
		}
		if f.PeriodEnd == "" {
			if ctx.Instant != "" {
				f.PeriodEnd = ctx.Instant
			} else {
				f.PeriodEnd = ctx.EndDate
			}
		}
		if f.PeriodStart == "" {
			f.PeriodStart = ctx.StartDate
		}
		if len(f.Dimensions) == 0 && len(ctx.Dimensions) > 0 {
			f.Dimensions = ctx.Dimensions
		}
	}
}

// DecodeMapped decodes a mapped statements document.
func DecodeMapped(data []byte) (*MappedFiling, error) {
	var raw struct {
		Statements []struct {
			Name  string           `json:"name"`
			Facts []map[string]any `json:"facts"`
		} `json:"statements"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	mf := &MappedFiling{}
	for _, rs := range raw.Statements {
		st := MappedStatement{Name: rs.Name}
		for _, rf := range rs.Facts {
			f, ok := NormalizeMappedFact(rf)
			if !ok {
				continue
			}
			st.Facts = append(st.Facts, f)
		}
		mf.Statements = append(mf.Statements, st)
	}
	return mf, nil
}

func normalizeContext(id string, rc map[string]any) ParsedContext {
	c := ParsedContext{
		ID:         id,
		PeriodType: firstString(rc, "period_type", "type"),
		Instant:    firstString(rc, "instant", "instant_date"),
		StartDate:  firstString(rc, "start_date", "startDate", "period_start"),
		EndDate:    firstString(rc, "end_date", "endDate", "period_end"),
		Dimensions: stringMap(rc["dimensions"]),
	}
	if c.PeriodType == "" {
		if c.Instant != "" {
			c.PeriodType = "instant"
		} else if c.EndDate != "" {
			c.PeriodType = "duration"
		}
	}
	return c
}

// NormalizeParsedFact maps a loosely keyed parsed fact record onto
// ParsedFact. It reports false when the record names no concept.
func NormalizeParsedFact(rf map[string]any) (ParsedFact, bool) {
	f := ParsedFact{
		Concept:     firstString(rf, "concept", "qname", "name"),
		Unit:        firstString(rf, "unit", "unit_ref", "unitRef"),
		Decimals:    firstString(rf, "decimals"),
		ContextRef:  firstString(rf, "context_ref", "contextRef", "context"),
		PeriodType:  firstString(rf, "period_type"),
		PeriodStart: firstString(rf, "period_start", "start_date"),
		PeriodEnd:   firstString(rf, "period_end", "end_date", "instant"),
		Dimensions:  stringMap(rf["dimensions"]),
		IsNil:       boolValue(rf["is_nil"]),
		IsAbstract:  boolValue(rf["is_abstract"]),
	}
	if f.Concept == "" {
		return f, false
	}
	if v, ok := firstNumber(rf, "value", "fact_value", "amount"); ok && !f.IsNil {
		f.Value = &v
	}
	return f, true
}

// NormalizeMappedFact maps a loosely keyed mapped fact record onto
// MappedFact. It reports false when the record names no concept.
func NormalizeMappedFact(rf map[string]any) (MappedFact, bool) {
	f := MappedFact{
		Concept:       firstString(rf, "concept", "qname", "name"),
		Label:         firstString(rf, "label", "display_label"),
		PeriodStart:   firstString(rf, "period_start", "start_date"),
		PeriodEnd:     firstString(rf, "period_end", "end_date", "instant"),
		Dimensions:    stringMap(rf["dimensions"]),
		Unit:          firstString(rf, "unit", "unit_ref"),
		Decimals:      firstString(rf, "decimals"),
		IsAbstract:    boolValue(rf["is_abstract"]),
		ParentConcept: firstString(rf, "parent_concept", "parent"),
	}
	if f.Concept == "" {
		return f, false
	}
	if v, ok := firstNumber(rf, "value", "fact_value", "amount"); ok {
		f.Value = &v
	}
	if v, ok := firstNumber(rf, "level", "depth"); ok {
		f.Level = int(v)
	}
	if v, ok := firstNumber(rf, "order"); ok {
		f.Order = v
	}
	if v, ok := firstNumber(rf, "sign"); ok {
		f.Sign = int(v)
	}
	if v, ok := firstNumber(rf, "scale"); ok {
		f.Scale = int(v)
	}
	return f, true
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case json.Number:
			return s.String()
		case float64:
			return FormatNumber(s)
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if n, ok := ParseNumeric(v); ok {
			return n, true
		}
	}
	return 0, false
}

func stringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]any:
		if len(m) == 0 {
			return nil
		}
		out := make(map[string]string, len(m))
		for k, val := range m {
			if s, ok := val.(string); ok {
				out[k] = s
			} else if val != nil {
				out[k] = FormatNumber(toFloat(val))
			}
		}
		return out
	case map[string]string:
		if len(m) == 0 {
			return nil
		}
		return m
	}
	return nil
}

func boolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

func toFloat(v any) float64 {
	n, _ := ParseNumeric(v)
	return n
}
