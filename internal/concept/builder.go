package concept

import (
	"context"

	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
)

// HierarchySource supplies persisted presentation nodes for a company.
type HierarchySource interface {
	HierarchyNodes(ctx context.Context, company string) ([]model.HierarchyNode, error)
}

// BuildOptions control optional enrichment layers.
type BuildOptions struct {
	Company   string
	Hierarchy HierarchySource
}

// Builder assembles an Index from the sources of one filing.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder { return &Builder{} }

// Build layers mapped structure, parsed characteristics and stored
// hierarchy labels into a fresh index. Either source may be nil.
func (b *Builder) Build(ctx context.Context, mapped *model.MappedFiling, parsed *model.ParsedFiling, opts BuildOptions) *Index {
	ix := NewIndex()

	b.addMapped(ix, mapped)
	b.addParsed(ix, parsed)
	if opts.Hierarchy != nil && opts.Company != "" {
		b.addHierarchy(ctx, ix, opts)
	}

	ix.finalize()
	zap.L().Debug("concept: index built",
		zap.Int("concepts", ix.Len()),
		zap.String("company", opts.Company),
	)
	return ix
}

func (b *Builder) addMapped(ix *Index, mapped *model.MappedFiling) {
	for _, f := range mapped.AllFacts() {
		if f.Concept == "" {
			continue
		}
		m := ix.ensure(f.Concept)
		if f.Label != "" && m.Labels[LabelStandard] == "" {
			m.Labels[LabelStandard] = f.Label
		}
		if f.IsAbstract {
			m.Abstract = true
		}
		if !m.HasPresentation {
			m.HasPresentation = true
			m.PresentationLevel = f.Level
			m.PresentationOrder = f.Order
			if f.ParentConcept != "" {
				m.PresentationParent = NormalizeKey(f.ParentConcept)
			}
		}
		if m.DataType == "" {
			m.DataType = InferDataType(f.Unit)
		}
		if f.ParentConcept != "" && f.Sign != 0 {
			ix.linkCalculation(NormalizeKey(f.ParentConcept), m.QName, float64(f.Sign))
		}
	}
}

func (b *Builder) addParsed(ix *Index, parsed *model.ParsedFiling) {
	if parsed == nil {
		return
	}
	for _, f := range parsed.Facts {
		if f.Concept == "" {
			continue
		}
		m := ix.ensure(f.Concept)
		if f.PeriodType != "" {
			m.Period = f.PeriodType
		}
		if m.DataType == "" {
			m.DataType = InferDataType(f.Unit)
		}
		if f.IsAbstract {
			m.Abstract = true
		}
	}
}

func (b *Builder) addHierarchy(ctx context.Context, ix *Index, opts BuildOptions) {
	nodes, err := opts.Hierarchy.HierarchyNodes(ctx, opts.Company)
	if err != nil {
		zap.L().Warn("concept: hierarchy enrichment skipped",
			zap.String("company", opts.Company),
			zap.Error(err),
		)
		return
	}
	applied := 0
	for _, n := range nodes {
		m := ix.Concept(n.Concept)
		if m == nil {
			continue
		}
		if n.Label != "" {
			m.Labels[LabelTaxonomy] = n.Label
		}
		if n.StandardLabel != "" {
			m.Labels[LabelStandard] = n.StandardLabel
		}
		if !m.HasPresentation {
			m.HasPresentation = true
			m.PresentationLevel = n.Level
			m.PresentationOrder = n.Order
			if n.ParentID != "" {
				m.PresentationParent = NormalizeKey(n.ParentID)
			}
		}
		applied++
	}
	zap.L().Debug("concept: hierarchy applied",
		zap.String("company", opts.Company),
		zap.Int("nodes", len(nodes)),
		zap.Int("applied", applied),
	)
}

// SupplementFromIXBRL adds concepts that appear only in the inline
// document. Period type comes from the fact's context when known.
func (ix *Index) SupplementFromIXBRL(facts []ixbrl.VerifiedFact, contexts *ixbrl.ContextSet) int {
	added := 0
	for _, f := range facts {
		if ix.Concept(f.Concept) != nil {
			continue
		}
		m := ix.ensure(f.Concept)
		m.DataType = InferDataType(f.UnitRef)
		if contexts != nil {
			if c, ok := contexts.Context(f.ContextRef); ok && c.PeriodType != "" {
				m.Period = c.PeriodType
			}
		}
		added++
	}
	if added > 0 {
		ix.finalize()
		zap.L().Debug("concept: supplemented from ixbrl", zap.Int("added", added))
	}
	return added
}

// ensure returns the concept for qname, creating it when absent.
func (ix *Index) ensure(qname string) *Metadata {
	if m := ix.Concept(qname); m != nil {
		return m
	}
	m := NewMetadata(qname)
	ix.Put(m)
	return m
}

func (ix *Index) linkCalculation(parent, child string, weight float64) {
	p := ix.ensure(parent)
	c := ix.Concept(child)
	if c == nil {
		return
	}
	for _, l := range p.CalculationChildren {
		if l.QName == c.QName {
			return
		}
	}
	p.CalculationChildren = append(p.CalculationChildren, CalcLink{QName: c.QName, Weight: weight})
	c.CalculationParents = append(c.CalculationParents, CalcLink{QName: p.QName, Weight: weight})
}

// finalize fills derived labels and sibling lists.
func (ix *Index) finalize() {
	for _, m := range ix.concepts {
		if m.Labels[LabelGenerated] == "" {
			m.Labels[LabelGenerated] = GenerateLabel(m.LocalName)
		}
		if m.Labels[LabelStandard] == "" {
			m.Labels[LabelStandard] = m.Labels[LabelGenerated]
		}
	}
	ix.link()
}
