package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:      srv.URL,
		Token:        "test-token",
		RetryBackoff: time.Millisecond,
		RateLimit:    1000,
		RateBurst:    100,
	})
}

func TestListCommits(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/api/commits", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[
			{"sha":"b","commit":{"message":"fix: crash","committer":{"date":"2025-05-02T10:00:00Z"}}},
			{"sha":"a","commit":{"message":"feat: init","committer":{"date":"2025-05-01T10:00:00Z"}}}
		]`))
	}))

	commits, err := c.ListCommits(context.Background(), "octo", "api", 50)
	require.NoError(t, err)

	require.Len(t, commits, 2)
	assert.Equal(t, "fix: crash", commits[0].Message)
	assert.Equal(t, time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC), commits[0].CommittedAt)
}

func TestLanguagesKeepOrder(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"TypeScript": 9000, "Go": 9000, "Dockerfile": 12}`))
	}))

	langs, err := c.Languages(context.Background(), "octo", "api")
	require.NoError(t, err)

	assert.Equal(t, []signals.LanguageBytes{
		{Name: "TypeScript", Bytes: 9000},
		{Name: "Go", Bytes: 9000},
		{Name: "Dockerfile", Bytes: 12},
	}, langs)
}

func TestStatusErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Git Repository is empty."}`))
	}))

	_, err := c.ListCommits(context.Background(), "octo", "empty", 50)

	se, ok := signals.AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Equal(t, "commits", se.Endpoint)
	assert.Equal(t, "Git Repository is empty.", se.Message)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))

	langs, err := c.Languages(context.Background(), "octo", "api")
	require.NoError(t, err)
	assert.Empty(t, langs)
	assert.EqualValues(t, 3, calls.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))

	_, err := c.ListCommits(context.Background(), "octo", "api", 10)

	se, ok := signals.AsStatusError(err)
	require.True(t, ok)
	assert.True(t, se.IsRateLimited())
	assert.EqualValues(t, 1, calls.Load())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Languages(context.Background(), "octo", "api")

	se, ok := signals.AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.EqualValues(t, 3, calls.Load()) // first try plus two retries
}

func TestListUserRepos(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octo/repos", r.URL.Path)
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`[
			{"name":"api","description":null,"stargazers_count":3,"language":"Go","html_url":"https://github.com/octo/api","updated_at":"2025-05-01T00:00:00Z"},
			{"name":"notes","description":"my notes","stargazers_count":0,"language":null,"html_url":"https://github.com/octo/notes","updated_at":"2025-04-01T00:00:00Z"}
		]`))
	}))

	repos, err := c.ListUserRepos(context.Background(), "octo")
	require.NoError(t, err)

	require.Len(t, repos, 2)
	assert.Equal(t, "api", repos[0].Name)
	assert.Equal(t, "Go", repos[0].Language)
	assert.Empty(t, repos[0].Description)
	assert.Equal(t, 3, repos[0].Stars)
	assert.Equal(t, "my notes", repos[1].Description)
	assert.Empty(t, repos[1].Language)
}

func TestTransportErrorIsNotStatusError(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1", MaxRetries: -1, Timeout: time.Second})

	_, err := c.ListCommits(context.Background(), "octo", "api", 10)

	require.Error(t, err)
	_, ok := signals.AsStatusError(err)
	assert.False(t, ok)
}
