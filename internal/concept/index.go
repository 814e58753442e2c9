package concept

import (
	"regexp"
	"sort"
	"strings"
)

// Label roles.
const (
	LabelStandard      = "standard"
	LabelTaxonomy      = "taxonomy"
	LabelTerse         = "terse"
	LabelDocumentation = "documentation"
	LabelGenerated     = "generated"
)

// CalcLink is one calculation relationship, referenced by qname.
type CalcLink struct {
	QName  string  `json:"qname"`
	Weight float64 `json:"weight"`
}

// Metadata is one concept as it appears in a filing. Hierarchy links are
// qname strings into the same index.
type Metadata struct {
	QName               string            `json:"qname"`
	LocalName           string            `json:"local_name"`
	Namespace           string            `json:"namespace,omitempty"`
	Prefix              string            `json:"prefix,omitempty"`
	Labels              map[string]string `json:"labels"`
	Balance             string            `json:"balance,omitempty"`
	Period              string            `json:"period,omitempty"`
	Abstract            bool              `json:"abstract"`
	DataType            string            `json:"data_type,omitempty"`
	Definition          string            `json:"definition,omitempty"`
	References          []string          `json:"references,omitempty"`
	HasPresentation     bool              `json:"has_presentation"`
	PresentationParent  string            `json:"presentation_parent,omitempty"`
	PresentationLevel   int               `json:"presentation_level"`
	PresentationOrder   float64           `json:"presentation_order"`
	Siblings            []string          `json:"siblings,omitempty"`
	CalculationChildren []CalcLink        `json:"calculation_children,omitempty"`
	CalculationParents  []CalcLink        `json:"calculation_parents,omitempty"`
}

// NewMetadata creates metadata for a qname with a generated label and
// inferred characteristics.
func NewMetadata(qname string) *Metadata {
	q := ParseQName(qname)
	m := &Metadata{
		QName:     q.Key(),
		LocalName: q.Local,
		Namespace: q.Namespace,
		Prefix:    q.Prefix,
		Labels:    map[string]string{LabelGenerated: GenerateLabel(q.Local)},
		Balance:   InferBalance(q.Local),
		Period:    InferPeriod(q.Local),
		Abstract:  IsAbstractName(q.Local),
	}
	return m
}

// Label returns the label for a role, or "".
func (m *Metadata) Label(role string) string {
	return m.Labels[role]
}

// DisplayLabel prefers the standard label, then the taxonomy label, then
// the generated one.
func (m *Metadata) DisplayLabel() string {
	for _, role := range []string{LabelStandard, LabelTaxonomy, LabelGenerated} {
		if l := m.Labels[role]; l != "" {
			return l
		}
	}
	return m.LocalName
}

// Index is the searchable set of concepts of one filing.
type Index struct {
	concepts map[string]*Metadata
	order    []string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{concepts: make(map[string]*Metadata)}
}

// Put adds or replaces a concept.
func (ix *Index) Put(m *Metadata) {
	if _, ok := ix.concepts[m.QName]; !ok {
		ix.order = append(ix.order, m.QName)
	}
	ix.concepts[m.QName] = m
}

// Concept resolves a qname in any accepted form.
func (ix *Index) Concept(qname string) *Metadata {
	if ix == nil {
		return nil
	}
	if m, ok := ix.concepts[qname]; ok {
		return m
	}
	if m, ok := ix.concepts[NormalizeKey(qname)]; ok {
		return m
	}
	if alt := AlternateKey(qname); alt != "" {
		if m, ok := ix.concepts[NormalizeKey(alt)]; ok {
			return m
		}
	}
	return nil
}

// Len returns the number of concepts.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.concepts)
}

// All returns every concept sorted by qname.
func (ix *Index) All() []*Metadata {
	out := make([]*Metadata, 0, len(ix.concepts))
	for _, m := range ix.concepts {
		out = append(out, m)
	}
	sortByQName(out)
	return out
}

// FindByLocalName matches local names case-insensitively. "*x*" is a
// contains match, "*x" a suffix match, "x*" a prefix match and anything
// else an exact match.
func (ix *Index) FindByLocalName(pattern string) []*Metadata {
	match := wildcardMatcher(pattern)
	var out []*Metadata
	for _, m := range ix.concepts {
		if match(strings.ToLower(m.LocalName)) {
			out = append(out, m)
		}
	}
	sortByQName(out)
	return out
}

func wildcardMatcher(pattern string) func(string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	lead, trail := strings.HasPrefix(p, "*"), strings.HasSuffix(p, "*")
	core := strings.Trim(p, "*")
	switch {
	case core == "":
		return func(string) bool { return lead || trail }
	case lead && trail:
		return func(s string) bool { return strings.Contains(s, core) }
	case lead:
		return func(s string) bool { return strings.HasSuffix(s, core) }
	case trail:
		return func(s string) bool { return strings.HasPrefix(s, core) }
	}
	return func(s string) bool { return s == core }
}

// FindByLabelWord returns concepts whose labels contain the word.
func (ix *Index) FindByLabelWord(word string) []*Metadata {
	w := strings.ToLower(word)
	var out []*Metadata
	for _, m := range ix.concepts {
		for _, l := range m.Labels {
			if strings.Contains(strings.ToLower(l), w) {
				out = append(out, m)
				break
			}
		}
	}
	sortByQName(out)
	return out
}

// FindChildrenOf returns the presentation children of a concept, in
// presentation order.
func (ix *Index) FindChildrenOf(parent string) []*Metadata {
	p := ix.Concept(parent)
	if p == nil {
		return nil
	}
	var out []*Metadata
	for _, m := range ix.concepts {
		if m.PresentationParent == p.QName {
			out = append(out, m)
		}
	}
	sortByOrder(out)
	return out
}

// CandidateQuery narrows the concepts considered for one component.
type CandidateQuery struct {
	LabelPatterns   []string
	LocalPatterns   []string
	Balance         string
	Period          string
	ExcludeAbstract bool
	Max             int
}

var labelWord = regexp.MustCompile(`[A-Za-z]{3,}`)

// Candidates gathers concepts sharing label words or local-name fragments
// with the query, widening to every concept when nothing matches. Balance
// and period filters keep concepts whose type is unknown.
func (ix *Index) Candidates(q CandidateQuery) []*Metadata {
	seen := make(map[string]*Metadata)
	add := func(list []*Metadata) {
		for _, m := range list {
			seen[m.QName] = m
		}
	}

	for _, p := range q.LabelPatterns {
		for _, w := range labelWord.FindAllString(p, -1) {
			add(ix.FindByLabelWord(w))
		}
	}
	for _, p := range q.LocalPatterns {
		add(ix.FindByLocalName("*" + strings.Trim(p, "*^$") + "*"))
	}
	if len(seen) == 0 {
		for _, p := range q.LabelPatterns {
			add(ix.FindByLocalName("*" + strings.ReplaceAll(strings.Trim(p, "*"), " ", "") + "*"))
		}
	}
	if len(seen) == 0 {
		add(ix.All())
	}

	out := make([]*Metadata, 0, len(seen))
	for _, m := range seen {
		if q.Balance != "" && m.Balance != "" && m.Balance != q.Balance {
			continue
		}
		if q.Period != "" && m.Period != "" && m.Period != q.Period {
			continue
		}
		if q.ExcludeAbstract && m.Abstract {
			continue
		}
		out = append(out, m)
	}
	sortByQName(out)
	if q.Max > 0 && len(out) > q.Max {
		out = out[:q.Max]
	}
	return out
}

// link computes sibling lists from presentation parents.
func (ix *Index) link() {
	children := make(map[string][]*Metadata)
	for _, m := range ix.concepts {
		if m.PresentationParent != "" {
			children[m.PresentationParent] = append(children[m.PresentationParent], m)
		}
	}
	for _, group := range children {
		sortByOrder(group)
		for _, m := range group {
			m.Siblings = m.Siblings[:0]
			for _, s := range group {
				if s.QName != m.QName {
					m.Siblings = append(m.Siblings, s.QName)
				}
			}
		}
	}
}

func sortByQName(list []*Metadata) {
	sort.Slice(list, func(i, j int) bool { return list[i].QName < list[j].QName })
}

func sortByOrder(list []*Metadata) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].PresentationOrder != list[j].PresentationOrder {
			return list[i].PresentationOrder < list[j].PresentationOrder
		}
		return list[i].QName < list[j].QName
	})
}
