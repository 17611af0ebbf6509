package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"name":"docs","description":null,"stargazers_count":1,"language":null,"html_url":"https://github.com/octocat/docs","updated_at":"2025-05-01T00:00:00Z"},
			{"name":"api","description":"service","stargazers_count":42,"language":"Go","html_url":"https://github.com/octocat/api","updated_at":"2025-04-01T00:00:00Z"}
		]`))
	})
	mux.HandleFunc("/repos/octocat/api/commits", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"sha":"c","commit":{"message":"fix: race in cache","committer":{"date":"2025-05-03T10:00:00Z"}}},
			{"sha":"b","commit":{"message":"fix: crash on empty body","committer":{"date":"2025-05-02T10:00:00Z"}}}
		]`))
	})
	mux.HandleFunc("/repos/octocat/api/languages", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Go": 12000}`))
	})
	mux.HandleFunc("/repos/octocat/docs/commits", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"sha":"a","commit":{"message":"docs: guide","committer":{"date":"2025-05-01T10:00:00Z"}}}]`))
	})
	mux.HandleFunc("/repos/octocat/docs/languages", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, githubURL string) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`
database:
  driver: sqlite
  path: %s
  migrate_on_start: true
github:
  base_url: %s
  rate_limit: 1000
  rate_burst: 100
ai:
  provider: heuristic
log:
  level: error
`, filepath.Join(dir, "giterra.db"), githubURL)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCollectThenPlanet(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfgPath := writeTestConfig(t, fakeGitHub(t).URL)

	out, err := execute(t, "collect", "--config", cfgPath, "--top", "2", "octocat")
	require.NoError(t, err)
	assert.Contains(t, out, "octocat")
	assert.Contains(t, out, "lab_dome")

	out, err = execute(t, "planet", "--config", cfgPath, "octocat")
	require.NoError(t, err)
	assert.Contains(t, out, `"theme": "lab_dome"`)
	assert.Contains(t, out, `"name": "api"`)
	assert.Contains(t, out, `"name": "docs"`)
}

func TestRepos(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfgPath := writeTestConfig(t, fakeGitHub(t).URL)

	out, err := execute(t, "repos", "--config", cfgPath, "octocat")
	require.NoError(t, err)
	assert.Less(t, bytes.Index([]byte(out), []byte("api")), bytes.Index([]byte(out), []byte("docs")))
}

func TestMigrateUpDown(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfgPath := writeTestConfig(t, "http://127.0.0.1:0")

	_, err := execute(t, "migrate", "up", "--config", cfgPath)
	require.NoError(t, err)
	_, err = execute(t, "migrate", "down", "--config", cfgPath)
	require.NoError(t, err)
	_, err = execute(t, "migrate", "up", "--to", "1", "--config", cfgPath)
	require.NoError(t, err)
}

func TestPlanet_RejectsBadUsername(t *testing.T) {
	_, err := execute(t, "planet", "-bad-")
	assert.Error(t, err)
}
