package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

const (
	DefaultMaxCommits  = 20
	DefaultConcurrency = 8
)

// ErrSynthesisFailed wraps any reduce-stage failure other than quota exhaustion.
var ErrSynthesisFailed = errors.New("profile synthesis failed")

// Outcome of one map/reduce run.
type Outcome struct {
	Narratives map[string]ai.RepoNarrative // successful map results by repository
	Failed     map[string]error            // map failures by repository
	Overall    string                      // synthesizer output
	Source     ai.Source
}

// Service coordinates the per-repository Analyzer (map) and the single
// Synthesizer call (reduce).
type Service struct {
	Analyzer    ai.Analyzer
	Synthesizer ai.Synthesizer
	Source      ai.Source
	Log         *slog.Logger
	MaxCommits  int
	Concurrency int
}

// NewService builds a Service around one provider.
func NewService(p ai.Provider, log *slog.Logger) *Service {
	return &Service{
		Analyzer:    p,
		Synthesizer: p,
		Source:      p.Source(),
		Log:         log,
		MaxCommits:  DefaultMaxCommits,
		Concurrency: DefaultConcurrency,
	}
}

// Analyze runs the map/reduce over an already collected slice of signals.
func (s *Service) Analyze(ctx context.Context, username string, sigs []signals.RepositorySignal) (Outcome, error) {
	ch := make(chan signals.RepositorySignal, len(sigs))
	for _, sig := range sigs {
		ch <- sig
	}
	close(ch)
	return s.Run(ctx, username, ch)
}

// Run starts one map task per usable signal as it arrives on in, waits
// for every task once in is closed, then calls the Synthesizer exactly
// once with the successful narratives sorted by repository name. Failed
// map tasks are excluded from the reduce input and reported in
// Outcome.Failed. When no task started the reduce stage is skipped.
func (s *Service) Run(ctx context.Context, username string, in <-chan signals.RepositorySignal) (Outcome, error) {
	out := Outcome{
		Narratives: make(map[string]ai.RepoNarrative),
		Failed:     make(map[string]error),
		Source:     s.Source,
	}
	log := s.logger().With("username", username)

	var (
		mu      sync.Mutex
		started int
		g       errgroup.Group
	)
	g.SetLimit(s.concurrency())
	for sig := range in {
		if !sig.Usable() {
			continue
		}
		started++
		input := ai.RepoInput{RepoName: sig.Repo, Commits: s.recent(sig.Messages)}
		g.Go(func() error {
			n, err := s.analyzeRepo(ctx, input)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("repository analysis failed", "repo", input.RepoName, "err", err)
				out.Failed[input.RepoName] = err
				return nil
			}
			out.Narratives[input.RepoName] = n
			return nil
		})
	}
	_ = g.Wait()

	if started == 0 {
		return out, nil
	}

	narratives := make([]ai.RepoNarrative, 0, len(out.Narratives))
	for _, n := range out.Narratives {
		narratives = append(narratives, n)
	}
	sort.Slice(narratives, func(i, j int) bool { return narratives[i].RepoName < narratives[j].RepoName })

	overall, err := s.Synthesizer.Synthesize(ctx, username, narratives)
	if err != nil {
		if errors.Is(err, ai.ErrQuotaExceeded) {
			return out, err
		}
		return out, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	out.Overall = overall
	log.Info("analysis synthesized", "repos", len(narratives), "failed", len(out.Failed), "source", s.Source)
	return out, nil
}

func (s *Service) analyzeRepo(ctx context.Context, in ai.RepoInput) (ai.RepoNarrative, error) {
	n, err := s.Analyzer.AnalyzeRepo(ctx, in)
	if err != nil {
		return ai.RepoNarrative{}, err
	}
	n.RepoName = in.RepoName
	if err := n.Validate(); err != nil {
		return ai.RepoNarrative{}, err
	}
	return n, nil
}

// recent keeps the newest MaxCommits messages; messages are newest first.
func (s *Service) recent(msgs []string) []string {
	limit := s.MaxCommits
	if limit <= 0 {
		limit = DefaultMaxCommits
	}
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return append([]string(nil), msgs...)
}

func (s *Service) concurrency() int {
	if s.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return s.Concurrency
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
