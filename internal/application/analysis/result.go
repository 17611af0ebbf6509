package analysis

import (
	"time"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/domain/scoring"
	"github.com/bryanwahyu/giterra/internal/domain/signals"
)

const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// BatchResult is the response of one analysis run. It is never persisted.
type BatchResult struct {
	Summary            Summary      `json:"summary"`
	Repositories       []RepoDetail `json:"repositories"`
	FailedRepositories []string     `json:"failed_repositories"`
}

type Summary struct {
	RunID           string                       `json:"run_id"`
	Username        string                       `json:"username"`
	Mode            string                       `json:"mode"`
	RepoCount       int                          `json:"repo_count"`
	Persona         string                       `json:"persona"`
	Theme           scoring.Theme                `json:"theme"`
	DominantTrait   signals.Category             `json:"dominant_trait"`
	MainLanguages   []string                     `json:"main_languages"`
	TotalScore      float64                      `json:"total_score"`
	CommitStats     map[signals.Category]int     `json:"commit_stats"`
	WeightedScores  map[signals.Category]float64 `json:"weighted_scores"`
	OverallAnalysis string                       `json:"overall_analysis"`
	AnalysisSource  ai.Source                    `json:"analysis_source"`
	GeneratedAt     time.Time                    `json:"generated_at"`
}

// RepoDetail describes one successfully collected repository.
type RepoDetail struct {
	Name              string                   `json:"name"`
	Status            signals.Status           `json:"status"`
	TotalCommits      int                      `json:"total_commits"`
	CommitStats       map[signals.Category]int `json:"commit_stats"`
	DominantType      signals.Category         `json:"dominant_type"`
	BuildingType      string                   `json:"building_type"`
	TopLanguages      []string                 `json:"top_languages"`
	Languages         []signals.LanguageBytes  `json:"languages"`
	LatestCommit      *time.Time               `json:"latest_commit,omitempty"`
	AnalysisAvailable bool                     `json:"analysis_available"`
	TechView          string                   `json:"tech_view,omitempty"`
	StabilityView     string                   `json:"stability_view,omitempty"`
	CommView          string                   `json:"comm_view,omitempty"`
	Summary           string                   `json:"summary,omitempty"`
}
