package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/pipeline"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ratio"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/store"
)

// analysisEnv holds the store, registry and analyzer shared by the
// analyze, batch and serve commands.
type analysisEnv struct {
	Store    store.Store // nil when the command persists nothing
	Registry *registry.Registry
	Analyzer *pipeline.Analyzer
}

// Close releases the store if one was opened.
func (e *analysisEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// Recorder wraps the analyzer in a run recorder over the env's store.
func (e *analysisEnv) Recorder() *pipeline.Recorder {
	return pipeline.NewRecorder(e.Analyzer, e.Store, nil)
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "ratiocheck.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv validates config for mode, loads the component registry and
// industry catalog, and builds the analyzer. A store is opened and
// migrated when withStore is set or the hierarchy store is enabled.
// Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, withStore bool) (*analysisEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	reg, err := registry.Load(cfg.Registry.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "load component registry")
	}
	catalog, err := ratio.LoadCatalog()
	if err != nil {
		return nil, eris.Wrap(err, "load industry catalog")
	}

	env := &analysisEnv{Registry: reg}
	opts := pipeline.OptionsFromConfig(cfg.Analysis)

	if withStore || cfg.Analysis.UseHierarchyStore {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
		if cfg.Analysis.UseHierarchyStore {
			opts.Hierarchy = st
		}
	}

	env.Analyzer = pipeline.NewAnalyzer(reg, catalog, nil, opts)

	zap.L().Debug("analysis environment ready",
		zap.Int("components", reg.Len()),
		zap.Strings("industries", catalog.Industries()),
		zap.Bool("store", env.Store != nil),
	)
	return env, nil
}
