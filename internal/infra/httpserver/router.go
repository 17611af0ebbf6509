package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/giterra/internal/application/analysis"
	"github.com/bryanwahyu/giterra/internal/application/planet"
	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/domain/profile"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
	"github.com/bryanwahyu/giterra/internal/logging"
	"github.com/bryanwahyu/giterra/internal/middleware"
)

const (
	maxBodyBytes     = 64 << 10
	defaultRepoLimit = 30
	maxRepoLimit     = 100
)

// Analyzer runs one analysis batch.
type Analyzer interface {
	Analyze(ctx context.Context, cmd analysis.AnalyzeCommand) (*analysis.BatchResult, error)
}

// PlanetReader serves persisted planets.
type PlanetReader interface {
	Get(ctx context.Context, username string) (*planet.View, error)
	ListRepositories(ctx context.Context, username string, page, size int) (profile.Page, error)
}

// RepoLister lists a user's repositories on the hosting service.
type RepoLister interface {
	Repositories(ctx context.Context, owner string, limit int) ([]signals.Repository, error)
}

// Deps wires the router. Metrics, Limiter and Ready are optional.
type Deps struct {
	Analysis    Analyzer
	Planet      PlanetReader
	Repos       RepoLister
	Log         *slog.Logger
	Metrics     *middleware.Metrics
	Limiter     *middleware.RateLimiter
	Ready       *middleware.Readiness
	Health      map[string]middleware.HealthChecker
	APIKeys     map[string]string
	CORSOrigins []string
}

type Router struct {
	analysis Analyzer
	planet   PlanetReader
	repos    RepoLister
	log      *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		analysis: d.Analysis,
		planet:   d.Planet,
		repos:    d.Repos,
		log:      logging.OrDiscard(d.Log),
	}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	mux.Use(middleware.RequestLogger(r.log))
	if d.Metrics != nil {
		mux.Use(d.Metrics.Middleware)
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(d.APIKeys))
	if d.Limiter != nil {
		mux.Use(d.Limiter.Middleware)
	}

	mux.Get("/health", middleware.HealthHandler(d.Health))
	mux.Get("/livez", middleware.LivenessHandler)
	if d.Ready != nil {
		mux.Get("/readyz", d.Ready.Handler)
	}
	if d.Metrics != nil {
		mux.Get("/metrics", d.Metrics.Handler)
	}

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/planet/{username}", r.wrap(r.handlePlanet))
		rt.Get("/users/{username}/repositories", r.wrap(r.handleRepositories))
		rt.Get("/github/{username}/repos", r.wrap(r.handleGitHubRepos))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// errBadRequest marks malformed input caught at the edge.
var errBadRequest = errors.New("bad request")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			code := statusOf(err)
			msg := err.Error()
			if code == http.StatusInternalServerError && !errors.Is(err, analysis.ErrPersistence) {
				r.log.Error("request failed", "path", req.URL.Path, "err", err)
				msg = "internal error"
			}
			_ = writeJSON(w, code, map[string]string{"error": msg})
		}
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, analysis.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ai.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, analysis.ErrAllCollectionsFailed), errors.Is(err, analysis.ErrSynthesisFailed):
		return http.StatusBadGateway
	case errors.Is(err, analysis.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	if se, ok := signals.AsStatusError(err); ok {
		if se.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// POST /v1/analyze
// Body: {"github_username": "<login>", "selected_repos": ["<repo>", ...]}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var cmd analysis.AnalyzeCommand
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}

	res, err := r.analysis.Analyze(req.Context(), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/planet/{username}
func (r *Router) handlePlanet(w http.ResponseWriter, req *http.Request) error {
	username, err := usernameParam(req)
	if err != nil {
		return err
	}
	view, err := r.planet.Get(req.Context(), username)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, view)
}

// GET /v1/users/{username}/repositories?page=&page_size=
func (r *Router) handleRepositories(w http.ResponseWriter, req *http.Request) error {
	username, err := usernameParam(req)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	page, size := middleware.PageParams(q.Get("page"), q.Get("page_size"))

	list, err := r.planet.ListRepositories(req.Context(), username, page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/github/{username}/repos?limit=
func (r *Router) handleGitHubRepos(w http.ResponseWriter, req *http.Request) error {
	username, err := usernameParam(req)
	if err != nil {
		return err
	}
	limit := middleware.ValidateLimit(req.URL.Query().Get("limit"), defaultRepoLimit, maxRepoLimit)

	repos, err := r.repos.Repositories(req.Context(), username, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"username":     username,
		"repositories": repos,
	})
}

func usernameParam(req *http.Request) (string, error) {
	username := middleware.SanitizeString(chi.URLParam(req, "username"))
	if err := middleware.ValidateUsername(username); err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return username, nil
}

// writeJSON encodes v before the status line goes out, so an encode failure
// still reaches wrap with the response untouched. Write errors after that
// point mean the client went away and are dropped.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
	return nil
}
