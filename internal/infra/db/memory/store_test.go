package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/giterra/internal/domain/profile"
)

func TestStore_CommitAndUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	err := s.Do(ctx, func(ctx context.Context, tx profile.Tx) error {
		return tx.Analyses().Save(ctx, &profile.RepositoryAnalysis{ID: "id-1", Username: "octo", Name: "api", Summary: "v1", CreatedAt: now})
	})
	require.NoError(t, err)

	err = s.Do(ctx, func(ctx context.Context, tx profile.Tx) error {
		return tx.Analyses().Save(ctx, &profile.RepositoryAnalysis{ID: "id-2", Username: "octo", Name: "api", Summary: "v2"})
	})
	require.NoError(t, err)

	got, err := s.Analyses().Get(ctx, "octo", "api")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, "v2", got.Summary)
	assert.Equal(t, now, got.CreatedAt)

	n, err := s.Analyses().CountByUser(ctx, "octo")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStore_IdentityIgnoresCase(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Analyses().Save(ctx, &profile.RepositoryAnalysis{ID: "id-1", Username: "octo", Name: "api", Summary: "v1"}))
	require.NoError(t, s.Analyses().Save(ctx, &profile.RepositoryAnalysis{ID: "id-2", Username: "Octo", Name: "API", Summary: "v2"}))

	n, err := s.Analyses().CountByUser(ctx, "OCTO")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.Analyses().Get(ctx, "octo", "Api")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, "v2", got.Summary)
	assert.Equal(t, "api", got.Name)

	require.NoError(t, s.Profiles().Save(ctx, &profile.UserProfile{ID: "p-1", Username: "Octo"}))
	require.NoError(t, s.Profiles().Save(ctx, &profile.UserProfile{ID: "p-2", Username: "octo", Persona: "Lab Dome"}))
	p, err := s.Profiles().Get(ctx, "OCTO")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "Lab Dome", p.Persona)
}

func TestStore_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.Do(ctx, func(ctx context.Context, tx profile.Tx) error {
		require.NoError(t, tx.Analyses().Save(ctx, &profile.RepositoryAnalysis{Username: "octo", Name: "api"}))
		require.NoError(t, tx.Profiles().Save(ctx, &profile.UserProfile{Username: "octo"}))

		// visible inside the transaction
		_, err := tx.Profiles().Get(ctx, "octo")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Analyses().Get(ctx, "octo", "api")
	assert.ErrorIs(t, err, profile.ErrNotFound)
	_, err = s.Profiles().Get(ctx, "octo")
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestStore_ListByUserPages(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, s.Analyses().Save(ctx, &profile.RepositoryAnalysis{Username: "octo", Name: name}))
	}
	require.NoError(t, s.Analyses().Save(ctx, &profile.RepositoryAnalysis{Username: "other", Name: "z"}))

	page, err := s.Analyses().ListByUser(ctx, "octo", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].Name)

	page, err = s.Analyses().ListByUser(ctx, "octo", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Analyses().Save(ctx, &profile.RepositoryAnalysis{Username: "octo", Name: "api", LatestCommit: &ts}))

	got, err := s.Analyses().Get(ctx, "octo", "api")
	require.NoError(t, err)
	*got.LatestCommit = ts.Add(time.Hour)

	again, err := s.Analyses().Get(ctx, "octo", "api")
	require.NoError(t, err)
	assert.Equal(t, ts, *again.LatestCommit)
}
