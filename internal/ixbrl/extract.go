package ixbrl

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/viant/afs"
	"go.uber.org/zap"
)

// VerifiedFact is one numeric fact whose value has been derived from the
// displayed text and the sign and scale attributes.
type VerifiedFact struct {
	Concept       string          `json:"concept"`
	Value         float64         `json:"value"`
	Exact         decimal.Decimal `json:"exact"`
	DisplayedText string          `json:"displayed_text"`
	Sign          int             `json:"sign"`
	Scale         int             `json:"scale"`
	Decimals      string          `json:"decimals,omitempty"`
	UnitRef       string          `json:"unit_ref,omitempty"`
	ContextRef    string          `json:"context_ref"`
	FactID        string          `json:"fact_id,omitempty"`
}

// Result is the outcome of one extraction pass.
type Result struct {
	Source   string
	Kind     SourceKind
	Facts    []VerifiedFact
	Contexts *ContextSet
}

// PrimaryCurrent returns the facts whose context is primary and in the
// current reporting period.
func (r *Result) PrimaryCurrent() []VerifiedFact {
	if r == nil {
		return nil
	}
	out := make([]VerifiedFact, 0, len(r.Facts))
	for _, f := range r.Facts {
		if r.Contexts.IsPrimaryCurrent(f.ContextRef) {
			out = append(out, f)
		}
	}
	return out
}

// ByConcept groups facts by concept name, preserving document order.
func ByConcept(facts []VerifiedFact) map[string][]VerifiedFact {
	out := make(map[string][]VerifiedFact)
	for _, f := range facts {
		out[f.Concept] = append(out[f.Concept], f)
	}
	return out
}

// Extractor reads filing sources through afs so local directories and
// remote storage URLs behave the same.
type Extractor struct {
	fs afs.Service
}

// NewExtractor creates an extractor. A nil service uses afs.New().
func NewExtractor(fs afs.Service) *Extractor {
	if fs == nil {
		fs = afs.New()
	}
	return &Extractor{fs: fs}
}

// Load locates the instance document in dir and extracts every numeric
// fact. A directory without an instance yields a nil result and no error.
func (e *Extractor) Load(ctx context.Context, dir string) (*Result, error) {
	src, err := Locate(ctx, e.fs, dir)
	if err != nil {
		return nil, err
	}
	if src == nil {
		zap.L().Warn("ixbrl: no instance document found", zap.String("dir", dir))
		return nil, nil
	}

	data, err := e.fs.DownloadWithURL(ctx, src.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "ixbrl: read %s", src.URL)
	}

	var res *Result
	switch src.Kind {
	case SourceXML:
		res, err = ExtractXML(data)
	default:
		res, err = ExtractMarkup(string(data))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ixbrl: extract %s", src.URL)
	}
	res.Source = src.URL
	res.Kind = src.Kind
	return res, nil
}

// Extract returns the primary current facts of the filing in dir.
func (e *Extractor) Extract(ctx context.Context, dir string) ([]VerifiedFact, error) {
	res, err := e.Load(ctx, dir)
	if err != nil || res == nil {
		return nil, err
	}
	return res.PrimaryCurrent(), nil
}

// ExtractAll returns every numeric fact of the filing in dir.
func (e *Extractor) ExtractAll(ctx context.Context, dir string) ([]VerifiedFact, error) {
	res, err := e.Load(ctx, dir)
	if err != nil || res == nil {
		return nil, err
	}
	return res.Facts, nil
}

// ExtractMarkup scans raw iXBRL markup for ix:nonFraction facts and
// parses its contexts.
func ExtractMarkup(markup string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, eris.Wrap(err, "ixbrl: parse markup")
	}

	res := &Result{Kind: SourceInline, Contexts: contextsFromDocument(doc)}
	negated, dropped := 0, 0
	doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == "ix:nonfraction"
	}).Each(func(_ int, s *goquery.Selection) {
		fact, ok := buildFact(s)
		if !ok {
			dropped++
			return
		}
		if fact.Sign < 0 {
			negated++
		}
		res.Facts = append(res.Facts, fact)
	})

	zap.L().Info("ixbrl: extracted numeric facts",
		zap.Int("facts", len(res.Facts)),
		zap.Int("negated", negated),
		zap.Int("dropped", dropped),
	)
	return res, nil
}

func buildFact(s *goquery.Selection) (VerifiedFact, bool) {
	concept := strings.TrimSpace(s.AttrOr("name", ""))
	if concept == "" {
		return VerifiedFact{}, false
	}

	text := strings.TrimSpace(s.Text())
	displayed, ok := ParseDisplayed(text, s.AttrOr("format", ""))
	if !ok {
		zap.L().Debug("ixbrl: unparsable displayed value",
			zap.String("concept", concept),
			zap.String("text", text),
		)
		return VerifiedFact{}, false
	}

	sign := 1
	if strings.TrimSpace(s.AttrOr("sign", "")) == "-" {
		sign = -1
	}
	scale := parseScale(s.AttrOr("scale", "0"))
	exact := TrueValue(displayed, scale, sign)

	return VerifiedFact{
		Concept:       concept,
		Value:         exact.InexactFloat64(),
		Exact:         exact,
		DisplayedText: text,
		Sign:          sign,
		Scale:         scale,
		Decimals:      s.AttrOr("decimals", ""),
		UnitRef:       s.AttrOr("unitref", ""),
		ContextRef:    s.AttrOr("contextref", ""),
		FactID:        s.AttrOr("id", ""),
	}, true
}

func parseScale(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
