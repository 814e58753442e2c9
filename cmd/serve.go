package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/model"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/monitoring"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/pipeline"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for analyses and run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve", true)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		if cfg.Monitoring.Enabled {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(env.Store),
				monitoring.NewAlerter(cfg.Monitoring),
				time.Duration(cfg.Monitoring.CheckIntervalSecs)*time.Second,
				cfg.Monitoring.LookbackWindowHours,
			)
			go checker.Run(ctx)
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newServer(env, cfg.Server.AnalyzeRPS, cfg.Server.FilingRoot).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// server exposes analyses and run history over HTTP. Analyses are
// CPU bound, so POST /analyze is rate limited. A non-empty filingRoot
// confines /analyze to directories under it.
type server struct {
	env        *analysisEnv
	limiter    *rate.Limiter
	router     chi.Router
	filingRoot string
}

func newServer(env *analysisEnv, rps float64, filingRoot string) *server {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	s := &server{
		env:        env,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		filingRoot: filingRoot,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the HTTP handler.
func (s *server) Router() http.Handler { return s.router }

func (s *server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Get("/components", s.handleComponents)
	r.Get("/stats", s.handleStats)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	Dir     string `json:"dir"`
	Persist bool   `json:"persist"`
}

type analyzeResponse struct {
	Run    *model.Run               `json:"run,omitempty"`
	Result *pipeline.AnalysisResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Dir == "" {
		writeError(w, http.StatusBadRequest, "dir is required")
		return
	}
	dir, err := resolveFilingDir(s.filingRoot, req.Dir)
	if err != nil {
		zap.L().Warn("analyze: rejected dir", zap.String("dir", req.Dir), zap.Error(err))
		writeError(w, http.StatusForbidden, "dir outside filing root")
		return
	}
	req.Dir = dir

	var out pipeline.Outcome
	if req.Persist && s.env.Store != nil {
		var err error
		out, err = s.env.Recorder().Record(r.Context(), req.Dir)
		if err != nil {
			zap.L().Error("analyze: record run", zap.String("dir", req.Dir), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to record run")
			return
		}
	} else {
		out, _ = pipeline.AnalyzeOnly(s.env.Analyzer)(r.Context(), req.Dir)
	}

	if out.Err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, analyzeResponse{Run: out.Run, Error: out.Err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Run: out.Run, Result: out.Result})
}

var errOutsideRoot = eris.New("serve: dir outside filing root")

// resolveFilingDir maps a requested directory onto root. Relative paths
// are taken under root. Storage URLs and paths escaping root are
// rejected. An empty root accepts any dir unchanged.
func resolveFilingDir(root, dir string) (string, error) {
	if root == "" {
		return dir, nil
	}
	if strings.Contains(dir, "://") {
		return "", errOutsideRoot
	}
	base, err := filepath.Abs(root)
	if err != nil {
		return "", eris.Wrap(err, "serve: resolve filing root")
	}
	p := dir
	if !filepath.IsAbs(p) {
		p = filepath.Join(base, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(base, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideRoot
	}
	return p, nil
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.env.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{
		Status:  model.RunStatus(q.Get("status")),
		Company: q.Get("company"),
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+key)
				return
			}
			*dst = n
		}
	}

	runs, err := s.env.Store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("runs: list", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.env.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	run, err := s.env.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	case err != nil:
		zap.L().Error("runs: get", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get run")
	default:
		writeJSON(w, http.StatusOK, run)
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.env.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid hours")
			return
		}
		hours = n
	}
	snap, err := monitoring.NewCollector(s.env.Store).Collect(r.Context(), hours)
	if err != nil {
		zap.L().Error("stats: collect", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *server) handleComponents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.env.Registry.All())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
