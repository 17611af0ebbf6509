package planet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/giterra/internal/domain/profile"
	"github.com/bryanwahyu/giterra/internal/domain/scoring"
)

// Reader is the read side of the profile store.
type Reader interface {
	Analyses() profile.AnalysisRepository
	Profiles() profile.ProfileRepository
}

// View is the persisted planet of one user.
type View struct {
	Username        string                        `json:"username"`
	Persona         string                        `json:"persona"`
	Theme           scoring.Theme                 `json:"theme"`
	TotalScore      float64                       `json:"total_score"`
	OverallAnalysis string                        `json:"overall_analysis,omitempty"`
	LastAnalyzed    *time.Time                    `json:"last_analyzed,omitempty"`
	Inferred        bool                          `json:"inferred"`
	Repositories    []*profile.RepositoryAnalysis `json:"repositories"`
}

type Service struct {
	Store Reader
}

func NewService(store Reader) *Service { return &Service{Store: store} }

// Get returns the stored profile with every analyzed repository. Without a
// stored profile the theme is the majority theme of the repositories'
// object tags; with nothing stored at all it is the beginner theme.
func (s *Service) Get(ctx context.Context, username string) (*View, error) {
	username = profile.Canonical(username)
	repos, err := s.Store.Analyses().ListByUser(ctx, username, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}

	v := &View{
		Username:     username,
		Theme:        scoring.BeginnerTheme,
		Persona:      scoring.Persona(scoring.BeginnerTheme),
		Repositories: repos,
	}

	p, err := s.Store.Profiles().Get(ctx, username)
	switch {
	case err == nil:
		v.Persona = p.Persona
		v.Theme = p.Theme
		v.TotalScore = p.TotalScore
		v.OverallAnalysis = p.OverallAnalysis
		at := p.LastAnalyzed
		v.LastAnalyzed = &at
	case errors.Is(err, profile.ErrNotFound):
		if len(repos) > 0 {
			v.Theme = InferTheme(repos)
			v.Persona = scoring.Persona(v.Theme)
			v.Inferred = true
		}
	default:
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return v, nil
}

// InferTheme picks the most frequent theme among the object tags. Unknown
// tags count as the beginner theme; ties go to the earlier theme in
// scoring.Themes.
func InferTheme(repos []*profile.RepositoryAnalysis) scoring.Theme {
	counts := make(map[scoring.Theme]int, len(scoring.Themes))
	for _, r := range repos {
		th, ok := scoring.ThemeOfObject(r.ObjectType)
		if !ok {
			th = scoring.BeginnerTheme
		}
		counts[th]++
	}
	best, bestN := scoring.BeginnerTheme, 0
	for _, th := range scoring.Themes {
		if counts[th] > bestN {
			best, bestN = th, counts[th]
		}
	}
	return best
}

// ListRepositories pages through the stored analyses of a user.
func (s *Service) ListRepositories(ctx context.Context, username string, page, size int) (profile.Page, error) {
	page, size = profile.NormalizePage(page, size)
	username = profile.Canonical(username)
	total, err := s.Store.Analyses().CountByUser(ctx, username)
	if err != nil {
		return profile.Page{}, fmt.Errorf("count analyses: %w", err)
	}
	items, err := s.Store.Analyses().ListByUser(ctx, username, (page-1)*size, size)
	if err != nil {
		return profile.Page{}, fmt.Errorf("list analyses: %w", err)
	}
	return profile.NewPage(items, page, size, total), nil
}
