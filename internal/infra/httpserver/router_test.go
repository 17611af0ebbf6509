package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/giterra/internal/application/analysis"
	"github.com/bryanwahyu/giterra/internal/application/planet"
	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/domain/profile"
	"github.com/bryanwahyu/giterra/internal/domain/scoring"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
	"github.com/bryanwahyu/giterra/internal/middleware"
)

type fakeAnalyzer struct {
	got analysis.AnalyzeCommand
	res *analysis.BatchResult
	err error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, cmd analysis.AnalyzeCommand) (*analysis.BatchResult, error) {
	f.got = cmd
	return f.res, f.err
}

type fakePlanet struct {
	view     *planet.View
	err      error
	gotPage  int
	gotSize  int
	gotUser  string
	pageData profile.Page
}

func (f *fakePlanet) Get(_ context.Context, username string) (*planet.View, error) {
	f.gotUser = username
	return f.view, f.err
}

func (f *fakePlanet) ListRepositories(_ context.Context, username string, page, size int) (profile.Page, error) {
	f.gotUser, f.gotPage, f.gotSize = username, page, size
	return f.pageData, f.err
}

type fakeRepos struct {
	repos    []signals.Repository
	err      error
	gotLimit int
}

func (f *fakeRepos) Repositories(_ context.Context, _ string, limit int) ([]signals.Repository, error) {
	f.gotLimit = limit
	return f.repos, f.err
}

func newTestRouter(a *fakeAnalyzer, p *fakePlanet, r *fakeRepos) http.Handler {
	return NewRouter(Deps{
		Analysis: a,
		Planet:   p,
		Repos:    r,
		Metrics:  middleware.NewMetrics(),
		Health: map[string]middleware.HealthChecker{
			"database": middleware.CheckFunc(func(context.Context) error { return nil }),
		},
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze_OK(t *testing.T) {
	a := &fakeAnalyzer{res: &analysis.BatchResult{
		Summary:            analysis.Summary{Username: "octocat", Theme: scoring.ThemeLabDome, TotalScore: 15.7},
		Repositories:       []analysis.RepoDetail{{Name: "api"}},
		FailedRepositories: []string{"broken"},
	}}
	h := newTestRouter(a, &fakePlanet{}, &fakeRepos{})

	rec := do(h, http.MethodPost, "/v1/analyze", `{"github_username":"octocat","selected_repos":["api","broken"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, analysis.AnalyzeCommand{Username: "octocat", Repos: []string{"api", "broken"}}, a.got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	summary := body["summary"].(map[string]any)
	assert.Equal(t, "lab_dome", summary["theme"])
	assert.Equal(t, 15.7, summary["total_score"])
	assert.Equal(t, []any{"broken"}, body["failed_repositories"])
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", fmt.Errorf("%w: duplicate repository", analysis.ErrInvalidRequest), http.StatusBadRequest},
		{"all collections failed", fmt.Errorf("batch: %w", analysis.ErrAllCollectionsFailed), http.StatusBadGateway},
		{"synthesis failed", fmt.Errorf("%w: empty answer", analysis.ErrSynthesisFailed), http.StatusBadGateway},
		{"quota", fmt.Errorf("synthesize: %w", ai.ErrQuotaExceeded), http.StatusTooManyRequests},
		{"persistence", fmt.Errorf("%w: disk full", analysis.ErrPersistence), http.StatusInternalServerError},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&fakeAnalyzer{err: tt.err}, &fakePlanet{}, &fakeRepos{})
			rec := do(h, http.MethodPost, "/v1/analyze", `{"github_username":"octocat","selected_repos":["api"]}`)
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAnalyze_InternalErrorsAreNotLeaked(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{err: errors.New("dsn user:secret@db")}, &fakePlanet{}, &fakeRepos{})
	rec := do(h, http.MethodPost, "/v1/analyze", `{"github_username":"octocat","selected_repos":["api"]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestAnalyze_BadBody(t *testing.T) {
	a := &fakeAnalyzer{}
	h := newTestRouter(a, &fakePlanet{}, &fakeRepos{})

	for _, body := range []string{`{`, `{"github_username":"octocat","extra":1}`, `[]`} {
		rec := do(h, http.MethodPost, "/v1/analyze", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, a.got.Username)
}

func TestPlanet(t *testing.T) {
	p := &fakePlanet{view: &planet.View{Username: "octocat", Theme: scoring.ThemeFutureCity, Persona: "Future City"}}
	h := newTestRouter(&fakeAnalyzer{}, p, &fakeRepos{})

	rec := do(h, http.MethodGet, "/v1/planet/octocat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "octocat", p.gotUser)
	assert.Contains(t, rec.Body.String(), `"theme":"future_city"`)

	rec = do(h, http.MethodGet, "/v1/planet/-bad-", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanet_EncodeFailureIsOneCleanError(t *testing.T) {
	p := &fakePlanet{view: &planet.View{Username: "octocat", TotalScore: math.NaN()}}
	h := newTestRouter(&fakeAnalyzer{}, p, &fakeRepos{})

	rec := do(h, http.MethodGet, "/v1/planet/octocat", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	assert.Equal(t, map[string]string{"error": "internal error"}, body)
}

func TestPlanet_NotFound(t *testing.T) {
	h := newTestRouter(&fakeAnalyzer{}, &fakePlanet{err: fmt.Errorf("load: %w", profile.ErrNotFound)}, &fakeRepos{})
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/v1/planet/octocat", "").Code)
}

func TestRepositories_Paging(t *testing.T) {
	p := &fakePlanet{pageData: profile.NewPage(nil, 2, 5, 7)}
	h := newTestRouter(&fakeAnalyzer{}, p, &fakeRepos{})

	rec := do(h, http.MethodGet, "/v1/users/octocat/repositories?page=2&page_size=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, p.gotPage)
	assert.Equal(t, 5, p.gotSize)

	var page profile.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.EqualValues(t, 7, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	do(h, http.MethodGet, "/v1/users/octocat/repositories?page=x&page_size=1000", "")
	assert.Equal(t, 1, p.gotPage)
	assert.Equal(t, profile.MaxPageSize, p.gotSize)
}

func TestGitHubRepos(t *testing.T) {
	r := &fakeRepos{repos: []signals.Repository{{Name: "api", Stars: 10}}}
	h := newTestRouter(&fakeAnalyzer{}, &fakePlanet{}, r)

	rec := do(h, http.MethodGet, "/v1/github/octocat/repos?limit=8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8, r.gotLimit)
	assert.Contains(t, rec.Body.String(), `"name":"api"`)

	do(h, http.MethodGet, "/v1/github/octocat/repos", "")
	assert.Equal(t, defaultRepoLimit, r.gotLimit)
}

func TestGitHubRepos_UpstreamStatus(t *testing.T) {
	notFound := &fakeRepos{err: fmt.Errorf("list: %w", &signals.StatusError{Endpoint: "repos", StatusCode: 404, Message: "Not Found"})}
	h := newTestRouter(&fakeAnalyzer{}, &fakePlanet{}, notFound)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/v1/github/ghost/repos", "").Code)

	limited := &fakeRepos{err: &signals.StatusError{Endpoint: "repos", StatusCode: 403, Message: "rate limit"}}
	h = newTestRouter(&fakeAnalyzer{}, &fakePlanet{}, limited)
	assert.Equal(t, http.StatusBadGateway, do(h, http.MethodGet, "/v1/github/octocat/repos", "").Code)
}

func TestProbes(t *testing.T) {
	ready := &middleware.Readiness{}
	h := NewRouter(Deps{
		Analysis: &fakeAnalyzer{},
		Planet:   &fakePlanet{},
		Repos:    &fakeRepos{},
		Metrics:  middleware.NewMetrics(),
		Ready:    ready,
		APIKeys:  map[string]string{"web": "k"},
	})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/livez", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/readyz", "").Code)
	ready.Set(true)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/metrics", "").Code)

	// API routes need the key
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/v1/planet/octocat", "").Code)
}
