// Package github implements signals.HostingClient over the GitHub REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

const (
	DefaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
	reposPerPage   = 100
)

// Config of the client. Zero values fall back to defaults.
type Config struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	MaxRetries   int // negative disables retries
	RetryBackoff time.Duration
	RateLimit    float64 // requests per second
	RateBurst    int
	UserAgent    string
	Transport    http.RoundTripper
}

func (c *Config) withDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = 2
	case c.MaxRetries < 0: // retries disabled
		c.MaxRetries = 0
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10
	}
	if c.RateBurst == 0 {
		c.RateBurst = 10
	}
	if c.UserAgent == "" {
		c.UserAgent = "giterra/1.0"
	}
}

// Client is a rate-limited, retrying GitHub client.
type Client struct {
	cfg     Config
	hc      *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
}

var _ signals.HostingClient = (*Client)(nil)

type commitDTO struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string `json:"message"`
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

func (c *Client) ListCommits(ctx context.Context, owner, repo string, perPage int) ([]signals.Commit, error) {
	q := url.Values{}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	body, err := c.get(ctx, "commits", repoPath(owner, repo, "commits"), q)
	if err != nil {
		return nil, err
	}
	var dtos []commitDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("decode commits of %s/%s: %w", owner, repo, err)
	}
	out := make([]signals.Commit, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, signals.Commit{SHA: d.SHA, Message: d.Commit.Message, CommittedAt: d.Commit.Committer.Date})
	}
	return out, nil
}

// Languages keeps the key order of the JSON object, which GitHub sorts by size.
func (c *Client) Languages(ctx context.Context, owner, repo string) ([]signals.LanguageBytes, error) {
	body, err := c.get(ctx, "languages", repoPath(owner, repo, "languages"), nil)
	if err != nil {
		return nil, err
	}
	langs, err := decodeOrderedLanguages(body)
	if err != nil {
		return nil, fmt.Errorf("decode languages of %s/%s: %w", owner, repo, err)
	}
	return langs, nil
}

type repoDTO struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Stars       int       `json:"stargazers_count"`
	Language    *string   `json:"language"`
	HTMLURL     string    `json:"html_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Client) ListUserRepos(ctx context.Context, owner string) ([]signals.Repository, error) {
	q := url.Values{}
	q.Set("sort", "updated")
	q.Set("per_page", strconv.Itoa(reposPerPage))
	body, err := c.get(ctx, "repos", "/users/"+url.PathEscape(owner)+"/repos", q)
	if err != nil {
		return nil, err
	}
	var dtos []repoDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("decode repositories of %s: %w", owner, err)
	}
	out := make([]signals.Repository, 0, len(dtos))
	for _, d := range dtos {
		r := signals.Repository{Name: d.Name, Stars: d.Stars, URL: d.HTMLURL, UpdatedAt: d.UpdatedAt}
		if d.Description != nil {
			r.Description = *d.Description
		}
		if d.Language != nil {
			r.Language = *d.Language
		}
		out = append(out, r)
	}
	return out, nil
}

// get performs a GET with rate limiting and retries on 429 and 5xx.
// Non-2xx answers come back as *signals.StatusError.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values) ([]byte, error) {
	u := strings.TrimSuffix(c.cfg.BaseURL, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBackoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, err := c.doOnce(ctx, endpoint, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &signals.StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: apiMessage(body)}
	}
	return body, nil
}

func retryable(err error) bool {
	se, ok := signals.AsStatusError(err)
	if !ok {
		return false
	}
	return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
}

func apiMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func repoPath(owner, repo, tail string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/" + tail
}

// decodeOrderedLanguages reads {"Go": 123, ...} keeping key order.
func decodeOrderedLanguages(body []byte) ([]signals.LanguageBytes, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var out []signals.LanguageBytes
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected language name, got %v", tok)
		}
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("bytes of %s: %w", name, err)
		}
		v, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("bytes of %s: %w", name, err)
		}
		out = append(out, signals.LanguageBytes{Name: name, Bytes: v})
	}
	return out, nil
}
