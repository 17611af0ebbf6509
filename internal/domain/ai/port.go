package ai

import (
	"context"
	"strings"
)

// RepoInput is the context handed to an Analyzer for one repository.
type RepoInput struct {
	RepoName string   `json:"repo_name"`
	Commits  []string `json:"commits"` // newest first
}

// RepoNarrative is the structured per-repository analysis.
type RepoNarrative struct {
	RepoName      string `json:"repo_name"`
	TechView      string `json:"tech_view"`
	StabilityView string `json:"stability_view"`
	CommView      string `json:"comm_view"`
	Summary       string `json:"summary"`
}

// Validate checks that every text field is filled.
func (n RepoNarrative) Validate() error {
	if strings.TrimSpace(n.TechView) == "" ||
		strings.TrimSpace(n.StabilityView) == "" ||
		strings.TrimSpace(n.CommView) == "" ||
		strings.TrimSpace(n.Summary) == "" {
		return ErrIncompleteNarrative
	}
	return nil
}

// Analyzer runs the per-repository map stage.
type Analyzer interface {
	AnalyzeRepo(ctx context.Context, in RepoInput) (RepoNarrative, error)
}

// Synthesizer runs the reduce stage over all repository narratives.
type Synthesizer interface {
	Synthesize(ctx context.Context, username string, narratives []RepoNarrative) (string, error)
}

// Source tells which kind of provider produced the narratives.
type Source string

const (
	SourceLLM       Source = "llm"
	SourceHeuristic Source = "heuristic"
)

// Provider bundles both stages of one backend.
type Provider interface {
	Analyzer
	Synthesizer
	Source() Source
}
