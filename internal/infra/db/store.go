package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/giterra/internal/domain/profile"
	"github.com/bryanwahyu/giterra/internal/domain/scoring"
)

var (
	analysisCols = []string{
		"id", "username", "name", "tech_view", "stability_view", "comm_view",
		"summary", "object_type", "latest_commit", "last_analyzed", "created_at",
	}
	analysisUpdate = []string{
		"tech_view", "stability_view", "comm_view", "summary",
		"object_type", "latest_commit", "last_analyzed",
	}
	profileCols = []string{
		"id", "username", "persona", "theme", "total_score",
		"overall_analysis", "last_analyzed", "created_at",
	}
	profileUpdate = []string{
		"persona", "theme", "total_score", "overall_analysis", "last_analyzed",
	}
)

const (
	selectAnalysis = `SELECT id, username, name, tech_view, stability_view, comm_view,
		summary, object_type, latest_commit, last_analyzed, created_at
		FROM repository_analyses`
	selectProfile = `SELECT id, username, persona, theme, total_score,
		overall_analysis, last_analyzed, created_at
		FROM user_profiles`
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements profile.Store on database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func NewStore(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx profile.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, bound{q: tx, d: s.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) Analyses() profile.AnalysisRepository {
	return &analysisRepo{q: s.db, d: s.dialect}
}

func (s *Store) Profiles() profile.ProfileRepository {
	return &profileRepo{q: s.db, d: s.dialect}
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *Store) Close() error                   { return s.db.Close() }

// bound hands out repositories running on one transaction.
type bound struct {
	q querier
	d Dialect
}

func (b bound) Analyses() profile.AnalysisRepository { return &analysisRepo{q: b.q, d: b.d} }
func (b bound) Profiles() profile.ProfileRepository  { return &profileRepo{q: b.q, d: b.d} }

type analysisRepo struct {
	q querier
	d Dialect
}

func (r *analysisRepo) Get(ctx context.Context, username, name string) (*profile.RepositoryAnalysis, error) {
	username, name = profile.Canonical(username), profile.Canonical(name)
	row := r.q.QueryRowContext(ctx, r.d.rebind(selectAnalysis+" WHERE username = ? AND name = ?"), username, name)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %s/%s: %w", username, name, err)
	}
	return a, nil
}

// Save upserts by canonical (username, name). On update the stored id and
// created_at win and are copied back into a.
func (r *analysisRepo) Save(ctx context.Context, a *profile.RepositoryAnalysis) error {
	a.Username, a.Name = profile.Canonical(a.Username), profile.Canonical(a.Name)
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.LastAnalyzed
	}
	q := r.d.upsert("repository_analyses", analysisCols, []string{"username", "name"}, analysisUpdate)
	_, err := r.q.ExecContext(ctx, r.d.rebind(q),
		a.ID, a.Username, a.Name, a.TechView, a.StabilityView, a.CommView,
		a.Summary, a.ObjectType, nullTime(a.LatestCommit), utc(a.LastAnalyzed), utc(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save analysis %s/%s: %w", a.Username, a.Name, err)
	}

	row := r.q.QueryRowContext(ctx,
		r.d.rebind("SELECT id, created_at FROM repository_analyses WHERE username = ? AND name = ?"),
		a.Username, a.Name)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("reload analysis %s/%s: %w", a.Username, a.Name, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return nil
}

// ListByUser orders by repository name. limit <= 0 returns every row
// after offset.
func (r *analysisRepo) ListByUser(ctx context.Context, username string, offset, limit int) ([]*profile.RepositoryAnalysis, error) {
	username = profile.Canonical(username)
	q := selectAnalysis + " WHERE username = ? ORDER BY name"
	args := []any{username}
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(offset, 0))
	}

	rows, err := r.q.QueryContext(ctx, r.d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses of %s: %w", username, err)
	}
	defer rows.Close()

	out := []*profile.RepositoryAnalysis{}
	skip := 0
	if limit <= 0 {
		skip = offset
	}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list analyses of %s: %w", username, err)
	}
	return out, nil
}

func (r *analysisRepo) CountByUser(ctx context.Context, username string) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		r.d.rebind("SELECT COUNT(*) FROM repository_analyses WHERE username = ?"), profile.Canonical(username)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count analyses of %s: %w", username, err)
	}
	return n, nil
}

type profileRepo struct {
	q querier
	d Dialect
}

func (r *profileRepo) Get(ctx context.Context, username string) (*profile.UserProfile, error) {
	var (
		p     profile.UserProfile
		theme string
	)
	err := r.q.QueryRowContext(ctx, r.d.rebind(selectProfile+" WHERE username = ?"), profile.Canonical(username)).Scan(
		&p.ID, &p.Username, &p.Persona, &theme, &p.TotalScore,
		&p.OverallAnalysis, &p.LastAnalyzed, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", username, err)
	}
	p.Theme = scoring.Theme(theme)
	p.LastAnalyzed = p.LastAnalyzed.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r *profileRepo) Save(ctx context.Context, p *profile.UserProfile) error {
	p.Username = profile.Canonical(p.Username)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.LastAnalyzed
	}
	q := r.d.upsert("user_profiles", profileCols, []string{"username"}, profileUpdate)
	_, err := r.q.ExecContext(ctx, r.d.rebind(q),
		p.ID, p.Username, p.Persona, string(p.Theme), p.TotalScore,
		p.OverallAnalysis, utc(p.LastAnalyzed), utc(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Username, err)
	}

	row := r.q.QueryRowContext(ctx,
		r.d.rebind("SELECT id, created_at FROM user_profiles WHERE username = ?"), p.Username)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("reload profile %s: %w", p.Username, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*profile.RepositoryAnalysis, error) {
	var (
		a      profile.RepositoryAnalysis
		latest sql.NullTime
	)
	err := s.Scan(&a.ID, &a.Username, &a.Name, &a.TechView, &a.StabilityView, &a.CommView,
		&a.Summary, &a.ObjectType, &latest, &a.LastAnalyzed, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if latest.Valid {
		t := latest.Time.UTC()
		a.LatestCommit = &t
	}
	a.LastAnalyzed = a.LastAnalyzed.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func utc(t time.Time) time.Time { return t.UTC() }
