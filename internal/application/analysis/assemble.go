package analysis

import (
	"time"

	aiapp "github.com/bryanwahyu/giterra/internal/application/ai"
	sigapp "github.com/bryanwahyu/giterra/internal/application/signals"
	"github.com/bryanwahyu/giterra/internal/domain/scoring"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

const repoLanguageCount = 3

// assemble builds the response from immutable snapshots of both stages.
// Details follow the request order; failed repositories only appear in
// FailedRepositories.
func assemble(runID, username string, batch sigapp.Batch, score scoring.Result, out aiapp.Outcome, at time.Time) *BatchResult {
	mode := ModeMulti
	if len(batch.Order) == 1 {
		mode = ModeSingle
	}

	res := &BatchResult{
		Summary: Summary{
			RunID:           runID,
			Username:        username,
			Mode:            mode,
			RepoCount:       len(batch.Order),
			Persona:         score.Persona,
			Theme:           score.Theme,
			DominantTrait:   score.DominantTrait,
			MainLanguages:   score.TopLanguages,
			TotalScore:      score.TotalScore,
			CommitStats:     score.CategoryTotals,
			WeightedScores:  score.WeightedScores,
			OverallAnalysis: out.Overall,
			AnalysisSource:  out.Source,
			GeneratedAt:     at,
		},
		Repositories:       []RepoDetail{},
		FailedRepositories: batch.Failed(),
	}

	for _, sig := range batch.Ordered() {
		if !sig.Usable() {
			continue
		}
		class := score.Repositories[sig.Repo]
		d := RepoDetail{
			Name:         sig.Repo,
			Status:       sig.Status,
			TotalCommits: sig.TotalCommits,
			CommitStats:  sig.Categories,
			DominantType: class.Trait,
			BuildingType: class.Object,
			TopLanguages: scoring.TopLanguages([]signals.RepositorySignal{sig}, repoLanguageCount),
			Languages:    sig.Languages,
			LatestCommit: sig.LatestCommit,
		}
		if n, ok := out.Narratives[sig.Repo]; ok {
			d.AnalysisAvailable = true
			d.TechView = n.TechView
			d.StabilityView = n.StabilityView
			d.CommView = n.CommView
			d.Summary = n.Summary
		}
		res.Repositories = append(res.Repositories, d)
	}
	return res
}
