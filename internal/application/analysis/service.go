package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/giterra/internal/application"
	aiapp "github.com/bryanwahyu/giterra/internal/application/ai"
	sigapp "github.com/bryanwahyu/giterra/internal/application/signals"
	"github.com/bryanwahyu/giterra/internal/domain/profile"
	"github.com/bryanwahyu/giterra/internal/domain/scoring"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

const (
	DefaultMaxRepositories = 20
	DefaultBatchTimeout    = 2 * time.Minute

	archiveTimeout = 10 * time.Second
)

// SignalCollector is the repository fan-out stage.
type SignalCollector interface {
	CollectAll(ctx context.Context, owner string, names []string, sink chan<- signals.RepositorySignal) (sigapp.Batch, error)
}

// NarrativeRunner is the AI map/reduce stage.
type NarrativeRunner interface {
	Run(ctx context.Context, username string, in <-chan signals.RepositorySignal) (aiapp.Outcome, error)
}

// ReportArchive stores finished reports outside the database.
type ReportArchive interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Observer receives run lifecycle events (metrics).
type Observer interface {
	AnalysisStarted()
	AnalysisFinished(failedRepos int, err error)
}

// AnalyzeCommand untuk trigger satu analysis run
type AnalyzeCommand struct {
	Username string   `json:"github_username"`
	Repos    []string `json:"selected_repos"`
}

// Service implements the analysis use case: collect, narrate, score,
// assemble and persist. Service is safe for concurrent use; runs for the
// same user must be serialized by the caller.
type Service struct {
	Collector SignalCollector
	AI        NarrativeRunner
	Store     profile.UnitOfWork
	Archive   ReportArchive // optional
	Observer  Observer      // optional
	Clock     application.Clock
	Log       *slog.Logger

	MaxRepositories int
	BatchTimeout    time.Duration
}

// Analyze runs one batch. Collection and the AI map stage are pipelined:
// every repository's analysis starts as soon as its signal is collected.
// Scoring and persistence wait for both stages to finish.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (res *BatchResult, err error) {
	username, repos, err := s.validate(cmd)
	if err != nil {
		return nil, err
	}

	if s.Observer != nil {
		s.Observer.AnalysisStarted()
		defer func() {
			failed := 0
			if res != nil {
				failed = len(res.FailedRepositories)
			}
			s.Observer.AnalysisFinished(failed, err)
		}()
	}

	runID := uuid.NewString()
	log := s.logger().With("run_id", runID, "username", username)
	log.Info("analysis started", "repos", len(repos))

	// one deadline for every task of the batch
	bctx, cancel := context.WithTimeout(ctx, s.batchTimeout())
	defer cancel()

	sink := make(chan signals.RepositorySignal, len(repos))
	var (
		wg      sync.WaitGroup
		outcome aiapp.Outcome
		aiErr   error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcome, aiErr = s.AI.Run(bctx, username, sink)
	}()

	batch, collectErr := s.Collector.CollectAll(bctx, username, repos, sink)
	close(sink)
	wg.Wait()

	if collectErr != nil {
		log.Error("signal collection failed", "err", collectErr)
		return nil, collectErr
	}
	if aiErr != nil {
		log.Error("synthesis failed", "err", aiErr)
		return nil, aiErr
	}

	score := scoring.Score(batch.Ordered())
	now := s.clock().Now()

	// the batch deadline bounds the network stages only
	if err := s.persist(ctx, username, batch, score, outcome, now); err != nil {
		log.Error("persist failed, run rolled back", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	res = assemble(runID, username, batch, score, outcome, now)
	s.archive(ctx, log, res)

	log.Info("analysis finished",
		"theme", score.Theme,
		"total_score", score.TotalScore,
		"failed", len(res.FailedRepositories),
		"narratives", len(outcome.Narratives),
	)
	return res, nil
}

// persist writes every repository with a narrative plus the profile in one
// unit of work under their canonical names. Nothing is written when any
// step fails.
func (s *Service) persist(ctx context.Context, username string, batch sigapp.Batch, score scoring.Result, out aiapp.Outcome, now time.Time) error {
	owner := profile.Canonical(username)
	return s.Store.Do(ctx, func(ctx context.Context, tx profile.Tx) error {
		for _, sig := range batch.Ordered() {
			if !sig.Usable() {
				continue
			}
			n, ok := out.Narratives[sig.Repo]
			if !ok {
				continue
			}
			name := profile.Canonical(sig.Repo)
			rec, err := tx.Analyses().Get(ctx, owner, name)
			if errors.Is(err, profile.ErrNotFound) {
				rec = &profile.RepositoryAnalysis{
					ID:        uuid.NewString(),
					Username:  owner,
					Name:      name,
					CreatedAt: now,
				}
			} else if err != nil {
				return fmt.Errorf("load analysis %s: %w", sig.Repo, err)
			}
			rec.Apply(profile.AnalysisUpdate{
				Narrative:    n,
				ObjectType:   score.Repositories[sig.Repo].Object,
				LatestCommit: sig.LatestCommit,
				AnalyzedAt:   now,
			})
			if err := tx.Analyses().Save(ctx, rec); err != nil {
				return fmt.Errorf("save analysis %s: %w", sig.Repo, err)
			}
		}

		p, err := tx.Profiles().Get(ctx, owner)
		if errors.Is(err, profile.ErrNotFound) {
			p = &profile.UserProfile{ID: uuid.NewString(), Username: owner, CreatedAt: now}
		} else if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		p.Apply(score, out.Overall, now)
		if err := tx.Profiles().Save(ctx, p); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		return nil
	})
}

// archive uploads the report after commit. Failures are logged only.
func (s *Service) archive(ctx context.Context, log *slog.Logger, res *BatchResult) {
	if s.Archive == nil {
		return
	}
	body, err := json.Marshal(res)
	if err != nil {
		log.Warn("report encode failed", "err", err)
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	key := ReportKey(res.Summary.Username, res.Summary.RunID)
	if err := s.Archive.Put(actx, key, body); err != nil {
		log.Warn("report archive failed", "key", key, "err", err)
	}
}

// ReportKey is the object key of an archived report.
func ReportKey(username, runID string) string {
	return fmt.Sprintf("reports/%s/%s.json", username, runID)
}

func (s *Service) validate(cmd AnalyzeCommand) (string, []string, error) {
	username := strings.TrimSpace(cmd.Username)
	if err := signals.ValidateOwner(username); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(cmd.Repos) == 0 {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, signals.ErrNoRepositories)
	}
	if limit := s.maxRepositories(); len(cmd.Repos) > limit {
		return "", nil, fmt.Errorf("%w: at most %d repositories per run, got %d", ErrInvalidRequest, limit, len(cmd.Repos))
	}

	seen := make(map[string]bool, len(cmd.Repos))
	repos := make([]string, 0, len(cmd.Repos))
	for _, r := range cmd.Repos {
		r = strings.TrimSpace(r)
		if err := signals.ValidateRepoName(r); err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		// hosting names are case-insensitive
		key := strings.ToLower(r)
		if seen[key] {
			return "", nil, fmt.Errorf("%w: duplicate repository %q", ErrInvalidRequest, r)
		}
		seen[key] = true
		repos = append(repos, r)
	}
	return username, repos, nil
}

func (s *Service) maxRepositories() int {
	if s.MaxRepositories <= 0 {
		return DefaultMaxRepositories
	}
	return s.MaxRepositories
}

func (s *Service) batchTimeout() time.Duration {
	if s.BatchTimeout <= 0 {
		return DefaultBatchTimeout
	}
	return s.BatchTimeout
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
