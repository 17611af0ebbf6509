package signals

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/bryanwahyu/giterra/internal/domain/signals"
)

// Repositories lists the public repositories of owner, most starred first
// and most recently updated among equal stars. limit <= 0 keeps all.
func (c *Collector) Repositories(ctx context.Context, owner string, limit int) ([]domain.Repository, error) {
	repos, err := c.Client.ListUserRepos(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list repositories of %s: %w", owner, err)
	}
	sort.SliceStable(repos, func(i, j int) bool {
		if repos[i].Stars != repos[j].Stars {
			return repos[i].Stars > repos[j].Stars
		}
		return repos[i].UpdatedAt.After(repos[j].UpdatedAt)
	})
	if limit > 0 && len(repos) > limit {
		repos = repos[:limit]
	}
	return repos, nil
}

// RepositoryNames returns just the names of Repositories.
func (c *Collector) RepositoryNames(ctx context.Context, owner string, limit int) ([]string, error) {
	repos, err := c.Repositories(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.Name)
	}
	return names, nil
}
