// Package pipeline runs the full integrity and matching flow over one
// filing directory, and over many in parallel.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/viant/afs"
	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/concept"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/config"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/integrity"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ixbrl"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/lookup"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/matcher"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/populate"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ratio"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/verify"
)

// ErrNoFacts is returned when a filing yields no facts from any source.
var ErrNoFacts = eris.New("pipeline: no facts in filing")

// Options tune one Analyzer.
type Options struct {
	IdentityTolerance float64
	Verify            verify.Options
	DefaultMarket     model.Market
	ExtendedRatios    bool
	// Hierarchy enriches the concept index when set.
	Hierarchy concept.HierarchySource
}

// OptionsFromConfig maps the analysis config section. The hierarchy
// source is attached separately since it needs an open store.
func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	return Options{
		IdentityTolerance: cfg.IdentityTolerance,
		Verify: verify.Options{
			Threshold:       cfg.VerifyThreshold,
			MaxAlternatives: cfg.MaxAlternatives,
			FallbackCap:     cfg.FallbackCap,
		},
		DefaultMarket:  model.Market(cfg.DefaultMarket),
		ExtendedRatios: cfg.ExtendedRatios,
	}
}

// Analyzer runs the analysis flow. It holds only read-only shared state,
// so one Analyzer serves concurrent filings.
type Analyzer struct {
	fs          afs.Service
	extractor   *ixbrl.Extractor
	coordinator *matcher.Coordinator
	catalog     *ratio.Catalog
	builder     *concept.Builder
	reconciler  *integrity.Reconciler
	engine      *ratio.Engine
	verifier    *verify.Verifier
	opts        Options
}

// NewAnalyzer creates an Analyzer. A nil fs uses afs.New().
func NewAnalyzer(reg *registry.Registry, catalog *ratio.Catalog, fs afs.Service, opts Options) *Analyzer {
	if fs == nil {
		fs = afs.New()
	}
	if opts.DefaultMarket == "" {
		opts.DefaultMarket = model.MarketSEC
	}
	return &Analyzer{
		fs:          fs,
		extractor:   ixbrl.NewExtractor(fs),
		coordinator: matcher.NewCoordinator(reg),
		catalog:     catalog,
		builder:     concept.NewBuilder(),
		reconciler:  integrity.NewReconciler(),
		engine:      ratio.NewEngine(),
		verifier:    verify.New(opts.Verify),
		opts:        opts,
	}
}

// Analyze loads the filing in dir and analyzes it.
func (a *Analyzer) Analyze(ctx context.Context, dir string) (*AnalysisResult, error) {
	f, err := LoadFiling(ctx, a.fs, dir)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeFiling(ctx, f)
}

// AnalyzeFiling runs every stage over a loaded filing.
func (a *Analyzer) AnalyzeFiling(ctx context.Context, f *Filing) (*AnalysisResult, error) {
	meta := f.Meta
	if meta.Market == "" {
		meta.Market = a.opts.DefaultMarket
	}
	log := zap.L().With(zap.String("company", meta.Company), zap.String("filing_id", meta.FilingID))
	log.Info("pipeline: starting analysis", zap.String("dir", f.Dir), zap.String("market", string(meta.Market)))

	result := &AnalysisResult{Filing: meta}
	stage := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		d := time.Since(start).Milliseconds()
		result.Stages = append(result.Stages, StageTiming{Name: name, DurationMs: d})
		if err != nil {
			log.Error("pipeline: stage failed", zap.String("stage", name), zap.Int64("duration_ms", d), zap.Error(err))
			return err
		}
		log.Debug("pipeline: stage complete", zap.String("stage", name), zap.Int64("duration_ms", d))
		return nil
	}

	values := lookup.New()
	var (
		extracted *ixbrl.Result
		facts     []ixbrl.VerifiedFact
		ix        *concept.Index
		rm        *matcher.ResolutionMap
		matches   model.MatchSet
		defs      []ratio.Definition
	)

	if err := stage("load_values", func() error {
		values.LoadFromFiling(f.Mapped, f.Parsed)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := stage("extract", func() error {
		var err error
		extracted, err = a.extractor.Load(ctx, f.Dir)
		if err != nil {
			return eris.Wrap(err, "pipeline: extract ixbrl")
		}
		facts = extracted.PrimaryCurrent()
		return nil
	}); err != nil {
		return nil, err
	}
	if len(facts) == 0 && values.ConceptCount() == 0 {
		return nil, eris.Wrapf(ErrNoFacts, "pipeline: %s", f.Dir)
	}
	result.Extraction = summarizeExtraction(extracted, len(facts))

	_ = stage("integrity", func() error {
		result.Signs = integrity.SummarizeSigns(integrity.AnalyzeSigns(facts))

		parsed, mapped := sourceValues(f, periodEnds(extracted, values))
		recon := a.reconciler.Reconcile(facts, parsed, mapped)
		result.Reconciliation.Summary = integrity.Summarize(recon)
		for _, r := range recon {
			if r.Discrepancy != integrity.ValueMatch {
				result.Reconciliation.Discrepancies = append(result.Reconciliation.Discrepancies, r)
			}
		}

		// ESEF filers publish business-convention signs that the iXBRL
		// sign attribute does not override.
		if meta.Market == model.MarketESEF {
			result.Reconciliation.CorrectionsSkipped = "esef sign convention"
		} else {
			result.Reconciliation.CorrectionsApplied = values.ApplyCorrections(integrity.SignCorrections(recon))
		}
		result.Values = values.Summary()
		return nil
	})

	_ = stage("index", func() error {
		opts := concept.BuildOptions{Company: meta.Company, Hierarchy: a.opts.Hierarchy}
		ix = a.builder.Build(ctx, f.Mapped, f.Parsed, opts)
		var contexts *ixbrl.ContextSet
		if extracted != nil {
			contexts = extracted.Contexts
		}
		ix.SupplementFromIXBRL(facts, contexts)
		result.Concepts = ix.Len()
		return nil
	})

	_ = stage("industry", func() error {
		result.Industry = a.catalog.Detect(ix)
		defs = a.catalog.Ratios(result.Industry.Industry, a.opts.ExtendedRatios)
		return nil
	})

	_ = stage("match", func() error {
		required := a.catalog.RequiredComponents(result.Industry.Industry, a.opts.ExtendedRatios)
		required = append(required, integrity.IdentityComponents...)
		rm = a.coordinator.ResolveAll(ix, meta.FilingID, required)
		if ids := resolvedIDs(rm); len(ids) > 0 {
			matches = matcher.BuildMatches(rm, ix, a.coordinator.Registry().Select(ids))
		}
		result.Resolution = rm
		return nil
	})

	_ = stage("populate", func() error {
		result.Population = populate.NewPopulator(ix).Populate(matches, values, rm)
		return nil
	})

	_ = stage("verify", func() error {
		result.Verification = a.verifier.Verify(matches, rm, ix, values)
		return nil
	})

	_ = stage("identities", func() error {
		result.Identities = integrity.ValidateIdentities(matches.Values(), a.opts.IdentityTolerance)
		return nil
	})

	_ = stage("ratios", func() error {
		result.Ratios = a.engine.Calculate(matches, defs)
		result.ScaleAnnotations = ratio.NormalizeScales(result.Ratios, matches, facts, defs)
		return nil
	})
	result.Components = matches

	log.Info("pipeline: analysis complete",
		zap.String("industry", result.Industry.Industry),
		zap.Int("facts", len(facts)),
		zap.Int("components", len(matches)),
		zap.Int("promotions", result.Verification.Promotions()),
		zap.Int("ratios_valid", result.ValidRatios()),
		zap.Int("ratios", len(result.Ratios)),
		zap.Int("identity_failures", result.IdentityFailures()),
	)
	return result, nil
}

func summarizeExtraction(res *ixbrl.Result, primary int) ExtractionSummary {
	if res == nil {
		return ExtractionSummary{}
	}
	s := ExtractionSummary{
		Source:       res.Source,
		Kind:         res.Kind,
		Facts:        len(res.Facts),
		PrimaryFacts: primary,
		Concepts:     len(ixbrl.ByConcept(res.Facts)),
	}
	if res.Contexts != nil {
		s.Contexts = res.Contexts.Len()
		s.PrimaryInstant = res.Contexts.PrimaryInstant()
		s.PrimaryDurationEnd = res.Contexts.PrimaryDurationEnd()
	}
	return s
}

// resolvedIDs lists every component the resolution touched, including
// formula dependencies the coordinator added.
func resolvedIDs(rm *matcher.ResolutionMap) []string {
	ids := make([]string, 0, len(rm.Resolved)+len(rm.Composites)+len(rm.Unresolved))
	ids = append(ids, rm.Resolved...)
	ids = append(ids, rm.Composites...)
	return append(ids, rm.Unresolved...)
}
