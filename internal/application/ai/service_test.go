package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

type fakeProvider struct {
	mu         sync.Mutex
	inputs     map[string]ai.RepoInput
	failRepos  map[string]error
	blank      map[string]bool
	synthCalls int
	synthInput []ai.RepoNarrative
	synthErr   error
}

func (f *fakeProvider) AnalyzeRepo(_ context.Context, in ai.RepoInput) (ai.RepoNarrative, error) {
	f.mu.Lock()
	if f.inputs == nil {
		f.inputs = map[string]ai.RepoInput{}
	}
	f.inputs[in.RepoName] = in
	f.mu.Unlock()

	if err := f.failRepos[in.RepoName]; err != nil {
		return ai.RepoNarrative{}, err
	}
	n := ai.RepoNarrative{
		RepoName:      "something-else",
		TechView:      "tech " + in.RepoName,
		StabilityView: "stable",
		CommView:      "clear",
		Summary:       fmt.Sprintf("%d commits", len(in.Commits)),
	}
	if f.blank[in.RepoName] {
		n.Summary = "  "
	}
	return n, nil
}

func (f *fakeProvider) Synthesize(_ context.Context, username string, ns []ai.RepoNarrative) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthCalls++
	f.synthInput = ns
	if f.synthErr != nil {
		return "", f.synthErr
	}
	return fmt.Sprintf("%s: %d repos", username, len(ns)), nil
}

func (f *fakeProvider) Source() ai.Source { return ai.SourceHeuristic }

func sig(repo string, status signals.Status, msgs ...string) signals.RepositorySignal {
	return signals.RepositorySignal{Repo: repo, Status: status, Messages: msgs, TotalCommits: len(msgs)}
}

func newService(p *fakeProvider) *Service {
	return NewService(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRun_MapThenReduceOnce(t *testing.T) {
	p := &fakeProvider{}
	svc := newService(p)

	out, err := svc.Analyze(context.Background(), "octo", []signals.RepositorySignal{
		sig("zeta", signals.StatusSuccess, "feat: z"),
		sig("alpha", signals.StatusPartialSuccess),
		sig("broken", signals.StatusFailed),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, p.synthCalls)
	assert.Equal(t, "octo: 2 repos", out.Overall)
	assert.Equal(t, ai.SourceHeuristic, out.Source)
	assert.Len(t, out.Narratives, 2)
	assert.NotContains(t, p.inputs, "broken")

	// repository name is forced back to the input and reduce input is sorted
	require.Len(t, p.synthInput, 2)
	assert.Equal(t, "alpha", p.synthInput[0].RepoName)
	assert.Equal(t, "zeta", p.synthInput[1].RepoName)
	assert.Equal(t, "zeta", out.Narratives["zeta"].RepoName)
}

func TestRun_CapsCommitContextToNewest(t *testing.T) {
	var msgs []string
	for i := 0; i < 30; i++ {
		msgs = append(msgs, fmt.Sprintf("commit %d", i))
	}
	p := &fakeProvider{}

	_, err := newService(p).Analyze(context.Background(), "octo", []signals.RepositorySignal{
		sig("api", signals.StatusSuccess, msgs...),
	})

	require.NoError(t, err)
	in := p.inputs["api"]
	require.Len(t, in.Commits, DefaultMaxCommits)
	assert.Equal(t, "commit 0", in.Commits[0])
	assert.Equal(t, "commit 19", in.Commits[19])
}

func TestRun_MapFailureIsExcludedFromReduce(t *testing.T) {
	p := &fakeProvider{
		failRepos: map[string]error{"b": errors.New("model overloaded")},
		blank:     map[string]bool{"c": true},
	}

	out, err := newService(p).Analyze(context.Background(), "octo", []signals.RepositorySignal{
		sig("a", signals.StatusSuccess, "feat: a"),
		sig("b", signals.StatusSuccess, "fix: b"),
		sig("c", signals.StatusSuccess, "docs: c"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, p.synthCalls)
	require.Len(t, p.synthInput, 1)
	assert.Equal(t, "a", p.synthInput[0].RepoName)
	assert.Contains(t, out.Failed, "b")
	assert.ErrorIs(t, out.Failed["c"], ai.ErrIncompleteNarrative)
}

func TestRun_SkipsReduceWithoutTasks(t *testing.T) {
	p := &fakeProvider{}

	out, err := newService(p).Analyze(context.Background(), "octo", []signals.RepositorySignal{
		sig("broken", signals.StatusFailed),
	})

	require.NoError(t, err)
	assert.Zero(t, p.synthCalls)
	assert.Empty(t, out.Overall)
}

func TestRun_SynthesisErrors(t *testing.T) {
	p := &fakeProvider{synthErr: errors.New("bad gateway")}
	_, err := newService(p).Analyze(context.Background(), "octo", []signals.RepositorySignal{
		sig("a", signals.StatusSuccess, "feat: a"),
	})
	assert.ErrorIs(t, err, ErrSynthesisFailed)

	p = &fakeProvider{synthErr: fmt.Errorf("openai: %w", ai.ErrQuotaExceeded)}
	_, err = newService(p).Analyze(context.Background(), "octo", []signals.RepositorySignal{
		sig("a", signals.StatusSuccess, "feat: a"),
	})
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
	assert.NotErrorIs(t, err, ErrSynthesisFailed)
}

func TestRun_StreamsFromChannel(t *testing.T) {
	p := &fakeProvider{}
	in := make(chan signals.RepositorySignal)
	done := make(chan Outcome)

	go func() {
		out, err := newService(p).Run(context.Background(), "octo", in)
		assert.NoError(t, err)
		done <- out
	}()

	in <- sig("a", signals.StatusSuccess, "feat: a")
	in <- sig("b", signals.StatusSuccess, "fix: b")
	close(in)

	out := <-done
	assert.Len(t, out.Narratives, 2)
	assert.Equal(t, 1, p.synthCalls)
}
