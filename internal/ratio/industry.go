package ratio

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
)

// IndustryGeneral is the fallback model.
const IndustryGeneral = "general"

//go:embed industries.yaml
var industriesYAML []byte

// Signals are the fingerprint concepts of one industry.
type Signals struct {
	Threshold int      `yaml:"threshold"`
	Strong    []string `yaml:"strong"`
	Moderate  []string `yaml:"moderate"`
}

// Model controls which ratios apply to an industry.
type Model struct {
	ID              string       `yaml:"id"`
	DisplayName     string       `yaml:"display_name"`
	Signals         *Signals     `yaml:"signals"`
	SkipRatios      []string     `yaml:"skip_ratios"`
	ExtraComponents []string     `yaml:"extra_components"`
	ExtraRatios     []Definition `yaml:"extra_ratios"`
}

// Detection is the outcome of industry fingerprinting.
type Detection struct {
	Industry string              `json:"industry"`
	Score    int                 `json:"score"`
	Signals  map[string][]string `json:"signals,omitempty"`
}

// Catalog holds the industry models.
type Catalog struct {
	models   map[string]*Model
	order    []string
	negative []string
}

type catalogFile struct {
	NegativeSignals []string `yaml:"negative_signals"`
	Industries      []*Model `yaml:"industries"`
}

// LoadCatalog parses the embedded industry models.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(industriesYAML)
}

// ParseCatalog parses an industry model document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "ratio: parse industry models")
	}
	c := &Catalog{models: make(map[string]*Model), negative: f.NegativeSignals}
	for _, m := range f.Industries {
		if m.ID == "" {
			return nil, eris.New("ratio: industry model without id")
		}
		if _, dup := c.models[m.ID]; dup {
			return nil, eris.Errorf("ratio: duplicate industry %q", m.ID)
		}
		for _, d := range m.ExtraRatios {
			if d.ID == "" || d.Numerator.Empty() {
				return nil, eris.Errorf("ratio: industry %q has an incomplete extra ratio", m.ID)
			}
		}
		c.models[m.ID] = m
		c.order = append(c.order, m.ID)
	}
	if _, ok := c.models[IndustryGeneral]; !ok {
		return nil, eris.New("ratio: industry models must include general")
	}
	return c, nil
}

// Model returns the model for an industry, falling back to general.
func (c *Catalog) Model(industry string) *Model {
	if m, ok := c.models[industry]; ok {
		return m
	}
	zap.L().Warn("ratio: unknown industry, using general", zap.String("industry", industry))
	return c.models[IndustryGeneral]
}

// Industries lists model ids in document order.
func (c *Catalog) Industries() []string {
	return append([]string(nil), c.order...)
}

// Detect fingerprints the filing's concepts. The highest adjusted score
// at or above its industry's threshold wins, ties going to the industry
// with more strong signals.
func (c *Catalog) Detect(ix *concept.Index) Detection {
	names := make(map[string]bool)
	if ix != nil {
		for _, m := range ix.All() {
			if m.LocalName != "" {
				names[strings.ToLower(m.LocalName)] = true
			}
		}
	}

	negative := 0
	for _, s := range c.negative {
		if names[strings.ToLower(s)] {
			negative++
		}
	}

	type candidate struct {
		id      string
		score   int
		strong  int
		matched []string
	}
	det := Detection{Industry: IndustryGeneral, Signals: map[string][]string{}}
	var candidates []candidate
	for _, id := range c.order {
		sig := c.models[id].Signals
		if sig == nil {
			continue
		}
		cand := candidate{id: id}
		for _, s := range sig.Strong {
			if names[strings.ToLower(s)] {
				cand.score += 2
				cand.strong++
				cand.matched = append(cand.matched, s)
			}
		}
		for _, s := range sig.Moderate {
			if names[strings.ToLower(s)] {
				cand.score++
				cand.matched = append(cand.matched, s)
			}
		}
		if len(cand.matched) > 0 {
			det.Signals[id] = cand.matched
		}
		cand.score = max(0, cand.score-negative)
		if cand.score >= sig.Threshold {
			candidates = append(candidates, cand)
		}
	}

	if len(candidates) == 0 {
		zap.L().Info("ratio: industry detected", zap.String("industry", IndustryGeneral))
		return det
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].strong > candidates[j].strong
	})
	best := candidates[0]
	det.Industry = best.id
	det.Score = best.score
	zap.L().Info("ratio: industry detected",
		zap.String("industry", best.id),
		zap.Int("score", best.score),
		zap.Strings("signals", best.matched),
	)
	return det
}

// Ratios assembles the ratio list for an industry: the standard set minus
// skipped ids, then the industry extras, then the extended set.
func (c *Catalog) Ratios(industry string, extended bool) []Definition {
	m := c.Model(industry)
	skip := make(map[string]bool, len(m.SkipRatios))
	for _, id := range m.SkipRatios {
		skip[id] = true
	}
	var out []Definition
	for _, d := range StandardRatios {
		if !skip[d.ID] {
			out = append(out, d)
		}
	}
	out = append(out, m.ExtraRatios...)
	if extended {
		out = append(out, ExtendedRatios...)
	}
	return out
}

// RequiredComponents names every component the industry's ratios read
// plus its extra components.
func (c *Catalog) RequiredComponents(industry string, extended bool) []string {
	return ComponentsFor(c.Ratios(industry, extended), c.Model(industry).ExtraComponents...)
}
