package pipeline

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"github.com/viant/afs"
	"go.uber.org/zap"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/store"
)

// Outcome is the result of analyzing one filing directory.
type Outcome struct {
	Dir     string          `json:"dir"`
	Run     *model.Run      `json:"run,omitempty"`
	Result  *AnalysisResult `json:"-"`
	Skipped bool            `json:"skipped,omitempty"`
	Err     error           `json:"-"`
}

// Recorder runs analyses and tracks each one as a run in the store.
type Recorder struct {
	analyzer *Analyzer
	store    store.Store
	fs       afs.Service
	// SkipUnchanged reuses the latest complete run of a source whose
	// fingerprint has not changed.
	SkipUnchanged bool
}

// NewRecorder creates a Recorder. A nil fs uses afs.New().
func NewRecorder(a *Analyzer, st store.Store, fs afs.Service) *Recorder {
	if fs == nil {
		fs = afs.New()
	}
	return &Recorder{analyzer: a, store: st, fs: fs}
}

// Record analyzes dir inside a run record. Analysis failures mark the run
// failed and are returned on the outcome; store failures are returned as
// errors.
func (r *Recorder) Record(ctx context.Context, dir string) (Outcome, error) {
	out := Outcome{Dir: dir}
	log := zap.L().With(zap.String("dir", dir))

	f, err := LoadFiling(ctx, r.fs, dir)
	if err != nil {
		out.Err = err
		return out, nil
	}

	if r.SkipUnchanged {
		prev, err := r.store.LatestBySource(ctx, dir)
		switch {
		case err == nil && prev.SourceHash == f.Fingerprint:
			log.Info("pipeline: source unchanged, skipping", zap.String("run_id", prev.ID))
			out.Run, out.Skipped = prev, true
			return out, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return out, eris.Wrap(err, "pipeline: latest run")
		}
	}

	run, err := r.store.CreateRun(ctx, f.Meta, dir, f.Fingerprint)
	if err != nil {
		return out, eris.Wrap(err, "pipeline: create run")
	}
	out.Run = run
	if err := r.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		log.Warn("pipeline: failed to update status", zap.Error(err))
	}

	res, err := r.analyzer.AnalyzeFiling(ctx, f)
	if err != nil {
		out.Err = err
		run.Status, run.Error = model.RunStatusFailed, err.Error()
		if ferr := r.store.FailRun(ctx, run.ID, err.Error()); ferr != nil {
			return out, eris.Wrap(ferr, "pipeline: fail run")
		}
		return out, nil
	}
	res.RunID = run.ID
	out.Result = res

	summary, err := res.Summary()
	if err != nil {
		return out, eris.Wrap(err, "pipeline: encode summary")
	}
	if err := r.store.CompleteRun(ctx, run.ID, summary); err != nil {
		return out, eris.Wrap(err, "pipeline: complete run")
	}
	run.Status, run.Summary = model.RunStatusComplete, summary
	return out, nil
}
