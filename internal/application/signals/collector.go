package signals

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	domain "github.com/bryanwahyu/giterra/internal/domain/signals"
)

const (
	DefaultCommitPageSize = 50
	DefaultConcurrency    = 8
)

// Collector gathers RepositorySignals from the hosting API.
// Collector is safe for concurrent use.
type Collector struct {
	Client      domain.HostingClient
	Log         *slog.Logger
	PageSize    int // commits per repository
	Concurrency int // parallel repositories in CollectAll
}

// NewCollector returns a Collector with default limits.
func NewCollector(client domain.HostingClient, log *slog.Logger) *Collector {
	return &Collector{
		Client:      client,
		Log:         log,
		PageSize:    DefaultCommitPageSize,
		Concurrency: DefaultConcurrency,
	}
}

// Collect fetches commits and languages of one repository concurrently and
// derives its signal. Failures end up in the returned signal, never as an error.
func (c *Collector) Collect(ctx context.Context, owner, repo string) domain.RepositorySignal {
	var (
		wg                 sync.WaitGroup
		commits            []domain.Commit
		langs              []domain.LanguageBytes
		commitErr, langErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		commits, commitErr = c.Client.ListCommits(ctx, owner, repo, c.pageSize())
	}()
	go func() {
		defer wg.Done()
		langs, langErr = c.Client.Languages(ctx, owner, repo)
	}()
	wg.Wait()

	log := c.logger().With("owner", owner, "repo", repo)

	if err := c.absorb(log, "commits", commitErr); err != nil {
		return failed(repo, err)
	}
	if err := c.absorb(log, "languages", langErr); err != nil {
		return failed(repo, err)
	}
	if commitErr != nil {
		commits = nil
	}
	if langErr != nil {
		langs = nil
	}

	messages := make([]string, 0, len(commits))
	for _, cm := range commits {
		messages = append(messages, cm.Message)
	}

	sig := domain.RepositorySignal{
		Repo:         repo,
		TotalCommits: len(commits),
		Categories:   domain.CountCategories(messages),
		Languages:    langs,
		Messages:     messages,
		Status:       domain.StatusPartialSuccess,
	}
	if len(commits) > 0 && !commits[0].CommittedAt.IsZero() {
		t := commits[0].CommittedAt
		sig.LatestCommit = &t
	}
	if len(commits) > 0 || len(langs) > 0 {
		sig.Status = domain.StatusSuccess
	}
	return sig
}

// absorb logs a non-2xx answer and swallows it. Any other error is
// returned as exceptional.
func (c *Collector) absorb(log *slog.Logger, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	se, ok := domain.AsStatusError(err)
	if !ok {
		log.Error("collect failed", "endpoint", endpoint, "err", err)
		return err
	}
	switch {
	case endpoint == "languages":
		log.Warn("languages unavailable", "status", se.StatusCode)
	case se.StatusCode == http.StatusConflict:
		log.Warn("repository is empty", "status", se.StatusCode)
	case se.IsRateLimited():
		log.Error("rate limit exceeded", "status", se.StatusCode)
	default:
		log.Error("commits unavailable", "status", se.StatusCode)
	}
	return nil
}

// Batch holds the outcome of CollectAll.
type Batch struct {
	Signals map[string]domain.RepositorySignal
	Order   []string // request order
}

// Ordered returns the signals in request order.
func (b Batch) Ordered() []domain.RepositorySignal {
	out := make([]domain.RepositorySignal, 0, len(b.Order))
	for _, name := range b.Order {
		if s, ok := b.Signals[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Failed returns the names of failed repositories in request order.
func (b Batch) Failed() []string {
	out := []string{}
	for _, name := range b.Order {
		if s, ok := b.Signals[name]; ok && !s.Usable() {
			out = append(out, name)
		}
	}
	return out
}

// Succeeded counts the usable signals.
func (b Batch) Succeeded() int {
	n := 0
	for _, s := range b.Signals {
		if s.Usable() {
			n++
		}
	}
	return n
}

// CollectAll runs Collect for every name and waits for all of them. A
// failing repository never cancels the others. Each finished signal is
// also sent to sink when it is non-nil, even after ctx is done, so the
// receiver must drain sink until CollectAll returns. CollectAll does not
// close sink.
// The batch is returned even when every collection failed.
func (c *Collector) CollectAll(ctx context.Context, owner string, names []string, sink chan<- domain.RepositorySignal) (Batch, error) {
	if len(names) == 0 {
		return Batch{}, domain.ErrNoRepositories
	}

	var (
		mu    sync.Mutex
		batch = Batch{
			Signals: make(map[string]domain.RepositorySignal, len(names)),
			Order:   append([]string(nil), names...),
		}
	)

	// plain Group: tasks never return an error, so no sibling is cancelled
	var g errgroup.Group
	g.SetLimit(c.concurrency())
	for _, name := range names {
		g.Go(func() error {
			sig := c.Collect(ctx, owner, name)
			mu.Lock()
			batch.Signals[name] = sig
			mu.Unlock()
			if sink != nil {
				sink <- sig
			}
			return nil
		})
	}
	_ = g.Wait()

	n := batch.Succeeded()
	c.logger().Info("signals collected", "owner", owner, "requested", len(names), "usable", n)
	if n == 0 {
		return batch, fmt.Errorf("%s: %w", owner, domain.ErrAllCollectionsFailed)
	}
	return batch, nil
}

func failed(repo string, err error) domain.RepositorySignal {
	return domain.RepositorySignal{
		Repo:       repo,
		Categories: domain.EmptyCounts(),
		Status:     domain.StatusFailed,
		Error:      err.Error(),
	}
}

func (c *Collector) pageSize() int {
	if c.PageSize <= 0 {
		return DefaultCommitPageSize
	}
	return c.PageSize
}

func (c *Collector) concurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

func (c *Collector) logger() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}
