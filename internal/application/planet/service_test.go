package planet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/giterra/internal/domain/profile"
	"github.com/bryanwahyu/giterra/internal/domain/scoring"
	"github.com/bryanwahyu/giterra/internal/infra/db/memory"
)

func seed(t *testing.T, s *memory.Store, username string, objects ...string) {
	t.Helper()
	for i, obj := range objects {
		require.NoError(t, s.Analyses().Save(context.Background(), &profile.RepositoryAnalysis{
			ID:         fmt.Sprintf("id-%d", i),
			Username:   username,
			Name:       fmt.Sprintf("repo-%02d", i),
			ObjectType: obj,
		}))
	}
}

func TestGet_StoredProfileWins(t *testing.T) {
	store := memory.New()
	seed(t, store, "octo", "GiantTree", "MossRock")
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Profiles().Save(context.Background(), &profile.UserProfile{
		Username: "octo", Persona: "Lab Dome", Theme: scoring.ThemeLabDome, TotalScore: 33.3,
		OverallAnalysis: "steady", LastAnalyzed: at,
	}))

	v, err := NewService(store).Get(context.Background(), "octo")
	require.NoError(t, err)

	assert.Equal(t, scoring.ThemeLabDome, v.Theme)
	assert.Equal(t, "Lab Dome", v.Persona)
	assert.Equal(t, 33.3, v.TotalScore)
	assert.False(t, v.Inferred)
	require.NotNil(t, v.LastAnalyzed)
	assert.Equal(t, at, *v.LastAnalyzed)
	assert.Len(t, v.Repositories, 2)
}

func TestGet_UsernameIgnoresCase(t *testing.T) {
	store := memory.New()
	seed(t, store, "octo", "ShieldTurret")

	v, err := NewService(store).Get(context.Background(), "Octo")
	require.NoError(t, err)
	assert.Equal(t, "octo", v.Username)
	assert.Len(t, v.Repositories, 1)

	page, err := NewService(store).ListRepositories(context.Background(), "OCTO", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestGet_InfersThemeFromObjects(t *testing.T) {
	store := memory.New()
	seed(t, store, "octo", "GiantTree", "MossRock", "Drone", "Mystery")

	v, err := NewService(store).Get(context.Background(), "octo")
	require.NoError(t, err)

	assert.True(t, v.Inferred)
	assert.Equal(t, scoring.ThemePrimitiveForest, v.Theme)
	assert.Equal(t, "Primitive Forest", v.Persona)
	assert.Zero(t, v.TotalScore)
}

func TestGet_EmptyUserIsBeginner(t *testing.T) {
	v, err := NewService(memory.New()).Get(context.Background(), "nobody")
	require.NoError(t, err)

	assert.Equal(t, scoring.ThemeStartTree, v.Theme)
	assert.Equal(t, "Start Tree", v.Persona)
	assert.False(t, v.Inferred)
	assert.Empty(t, v.Repositories)
}

func TestInferTheme_TiesFollowThemeOrder(t *testing.T) {
	repos := []*profile.RepositoryAnalysis{{ObjectType: "ShieldTurret"}, {ObjectType: "Drone"}}
	assert.Equal(t, scoring.ThemeFutureCity, InferTheme(repos))

	repos = []*profile.RepositoryAnalysis{{ObjectType: "Unknown"}}
	assert.Equal(t, scoring.ThemeStartTree, InferTheme(repos))
}

func TestListRepositories(t *testing.T) {
	store := memory.New()
	seed(t, store, "octo", "Drone", "Drone", "Drone", "Drone", "Drone")
	svc := NewService(store)

	page, err := svc.ListRepositories(context.Background(), "octo", 2, 2)
	require.NoError(t, err)

	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "repo-02", page.Data[0].Name)

	page, err = svc.ListRepositories(context.Background(), "octo", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, profile.DefaultPageSize, page.PageSize)
	assert.Len(t, page.Data, 5)
}
