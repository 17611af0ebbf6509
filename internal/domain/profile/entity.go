package profile

import (
	"strings"
	"time"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/domain/scoring"
)

// Canonical is the stored form of a username or repository name. GitHub
// treats both case-insensitively, so every read and write goes through it.
func Canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RepositoryAnalysis is the persisted analysis of one (user, repository) pair.
type RepositoryAnalysis struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Name          string     `json:"name"`
	TechView      string     `json:"tech_view"`
	StabilityView string     `json:"stability_view"`
	CommView      string     `json:"comm_view"`
	Summary       string     `json:"summary"`
	ObjectType    string     `json:"object_type"`
	LatestCommit  *time.Time `json:"latest_commit,omitempty"`
	LastAnalyzed  time.Time  `json:"last_analyzed"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AnalysisUpdate carries what one run learned about a repository.
type AnalysisUpdate struct {
	Narrative    ai.RepoNarrative
	ObjectType   string
	LatestCommit *time.Time
	AnalyzedAt   time.Time
}

// Apply overwrites the record with the update (last write wins). The
// latest commit only moves forward.
func (a *RepositoryAnalysis) Apply(u AnalysisUpdate) {
	a.TechView = u.Narrative.TechView
	a.StabilityView = u.Narrative.StabilityView
	a.CommView = u.Narrative.CommView
	a.Summary = u.Narrative.Summary
	a.ObjectType = u.ObjectType
	a.LastAnalyzed = u.AnalyzedAt
	if u.LatestCommit != nil && (a.LatestCommit == nil || u.LatestCommit.After(*a.LatestCommit)) {
		t := *u.LatestCommit
		a.LatestCommit = &t
	}
}

// UserProfile is the persisted persona of a user.
type UserProfile struct {
	ID              string        `json:"id"`
	Username        string        `json:"username"`
	Persona         string        `json:"persona"`
	Theme           scoring.Theme `json:"theme"`
	TotalScore      float64       `json:"total_score"`
	OverallAnalysis string        `json:"overall_analysis"`
	LastAnalyzed    time.Time     `json:"last_analyzed"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Apply overwrites the profile with a fresh scoring result and narrative.
func (p *UserProfile) Apply(res scoring.Result, narrative string, at time.Time) {
	p.Persona = res.Persona
	p.Theme = res.Theme
	p.TotalScore = res.TotalScore
	p.OverallAnalysis = narrative
	p.LastAnalyzed = at
}
