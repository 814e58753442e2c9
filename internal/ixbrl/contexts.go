package ixbrl

import (
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Period types of a context.
const (
	PeriodInstant  = "instant"
	PeriodDuration = "duration"
)

// ContextInfo is one reporting context from the filing.
type ContextInfo struct {
	ID            string `json:"id"`
	IsPrimary     bool   `json:"is_primary"`
	PeriodType    string `json:"period_type"`
	Instant       string `json:"instant,omitempty"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	HasDimensions bool   `json:"has_dimensions"`
}

// PeriodEnd returns the instant date or the duration end date.
func (c ContextInfo) PeriodEnd() string {
	if c.PeriodType == PeriodInstant {
		return c.Instant
	}
	return c.End
}

// ContextSet holds every context of one filing plus the current
// reporting period derived from its primary contexts.
type ContextSet struct {
	contexts        map[string]ContextInfo
	order           []string
	primaryInstant  string
	primaryDuration string
}

// NewContextSet builds a set from parsed contexts and determines the
// current reporting period.
func NewContextSet(list []ContextInfo) *ContextSet {
	cs := &ContextSet{contexts: make(map[string]ContextInfo, len(list))}
	for _, c := range list {
		c.IsPrimary = !c.HasDimensions
		if _, dup := cs.contexts[c.ID]; !dup {
			cs.order = append(cs.order, c.ID)
		}
		cs.contexts[c.ID] = c
	}
	cs.determinePeriods()
	return cs
}

// ParseContexts parses every xbrli:context element in raw iXBRL markup.
func ParseContexts(markup string) (*ContextSet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return contextsFromDocument(doc), nil
}

func contextsFromDocument(doc *goquery.Document) *ContextSet {
	var list []ContextInfo
	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return localTag(goquery.NodeName(s)) == "context"
	}).Each(func(_ int, s *goquery.Selection) {
		id, ok := s.Attr("id")
		if !ok || id == "" {
			return
		}
		list = append(list, parseContextElement(id, s))
	})

	cs := NewContextSet(list)
	primary := 0
	for _, c := range cs.contexts {
		if c.IsPrimary {
			primary++
		}
	}
	zap.L().Info("ixbrl: parsed contexts",
		zap.Int("total", cs.Len()),
		zap.Int("primary", primary),
		zap.Int("dimensional", cs.Len()-primary),
		zap.String("instant", cs.primaryInstant),
		zap.String("duration_end", cs.primaryDuration),
	)
	return cs
}

func parseContextElement(id string, s *goquery.Selection) ContextInfo {
	c := ContextInfo{ID: id}
	s.Find("*").Each(func(_ int, child *goquery.Selection) {
		switch localTag(goquery.NodeName(child)) {
		case "segment", "scenario":
			c.HasDimensions = true
		case "instant":
			c.Instant = strings.TrimSpace(child.Text())
		case "startdate":
			c.Start = strings.TrimSpace(child.Text())
		case "enddate":
			c.End = strings.TrimSpace(child.Text())
		}
	})
	switch {
	case c.Instant != "":
		c.PeriodType = PeriodInstant
	case c.Start != "" && c.End != "":
		c.PeriodType = PeriodDuration
	}
	c.IsPrimary = !c.HasDimensions
	return c
}

// localTag strips a namespace prefix and lowercases the tag name.
func localTag(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// determinePeriods picks the latest primary duration end, then the
// latest primary instant not after it. Instants dated after the fiscal
// period (subsequent events, cover-page share counts) are skipped.
func (cs *ContextSet) determinePeriods() {
	var instants, ends []string
	for _, id := range cs.order {
		c := cs.contexts[id]
		if !c.IsPrimary {
			continue
		}
		switch c.PeriodType {
		case PeriodInstant:
			instants = append(instants, c.Instant)
		case PeriodDuration:
			ends = append(ends, c.End)
		}
	}

	if len(ends) > 0 {
		cs.primaryDuration = sortDatesDesc(ends)[0]
	}
	if len(instants) == 0 {
		return
	}
	sorted := sortDatesDesc(instants)
	cs.primaryInstant = sorted[0]
	if cs.primaryDuration == "" {
		return
	}
	for _, d := range sorted {
		if CompareDates(d, cs.primaryDuration) <= 0 {
			cs.primaryInstant = d
			return
		}
	}
}

// IsPrimaryCurrent reports whether a context is primary and belongs to
// the current reporting period.
func (cs *ContextSet) IsPrimaryCurrent(ref string) bool {
	if cs == nil {
		return false
	}
	c, ok := cs.contexts[ref]
	if !ok || !c.IsPrimary {
		return false
	}
	switch c.PeriodType {
	case PeriodInstant:
		return c.Instant != "" && c.Instant == cs.primaryInstant
	case PeriodDuration:
		return c.End != "" && c.End == cs.primaryDuration
	}
	return false
}

// Context returns a context by id.
func (cs *ContextSet) Context(id string) (ContextInfo, bool) {
	if cs == nil {
		return ContextInfo{}, false
	}
	c, ok := cs.contexts[id]
	return c, ok
}

// PrimaryInstant returns the balance-sheet date.
func (cs *ContextSet) PrimaryInstant() string { return cs.primaryInstant }

// PrimaryDurationEnd returns the income-statement period end.
func (cs *ContextSet) PrimaryDurationEnd() string { return cs.primaryDuration }

// PrimaryContextIDs returns the ids of all primary current contexts in
// document order.
func (cs *ContextSet) PrimaryContextIDs() []string {
	var out []string
	for _, id := range cs.order {
		if cs.IsPrimaryCurrent(id) {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of contexts.
func (cs *ContextSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.contexts)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"20060102",
	"2006-1-2",
}

// ParseDate parses the date forms seen in XBRL contexts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareDates orders two date strings calendar-aware. Unparsable dates
// sort before every parsed date and in string order among themselves.
func CompareDates(a, b string) int {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return 1
	case okB:
		return -1
	}
	return strings.Compare(a, b)
}

func sortDatesDesc(dates []string) []string {
	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return CompareDates(out[i], out[j]) > 0
	})
	return out
}
