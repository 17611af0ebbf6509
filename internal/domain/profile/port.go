package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get lookups without a matching row.
var ErrNotFound = errors.New("not found")

// AnalysisRepository persists RepositoryAnalysis rows keyed by (username, name).
type AnalysisRepository interface {
	Get(ctx context.Context, username, name string) (*RepositoryAnalysis, error)
	// Save inserts or updates by (username, name).
	Save(ctx context.Context, a *RepositoryAnalysis) error
	ListByUser(ctx context.Context, username string, offset, limit int) ([]*RepositoryAnalysis, error)
	CountByUser(ctx context.Context, username string) (int64, error)
}

// ProfileRepository persists UserProfile rows keyed by username.
type ProfileRepository interface {
	Get(ctx context.Context, username string) (*UserProfile, error)
	// Save inserts or updates by username.
	Save(ctx context.Context, p *UserProfile) error
}

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Analyses() AnalysisRepository
	Profiles() ProfileRepository
}

// UnitOfWork runs fn inside one transaction; an error from fn rolls back
// every write made through tx.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is the full persistence port.
type Store interface {
	UnitOfWork
	Analyses() AnalysisRepository
	Profiles() ProfileRepository
	Ping(ctx context.Context) error
	Close() error
}
