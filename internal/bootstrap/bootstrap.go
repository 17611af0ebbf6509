// Package bootstrap wires configuration into the application services.
// Both the API server and the CLI build their dependencies here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/giterra/internal/application"
	aiapp "github.com/bryanwahyu/giterra/internal/application/ai"
	"github.com/bryanwahyu/giterra/internal/application/analysis"
	"github.com/bryanwahyu/giterra/internal/application/planet"
	sigapp "github.com/bryanwahyu/giterra/internal/application/signals"
	"github.com/bryanwahyu/giterra/internal/config"
	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/domain/profile"
	"github.com/bryanwahyu/giterra/internal/infra/ai/heuristic"
	"github.com/bryanwahyu/giterra/internal/infra/ai/openai"
	"github.com/bryanwahyu/giterra/internal/infra/db"
	"github.com/bryanwahyu/giterra/internal/infra/db/memory"
	"github.com/bryanwahyu/giterra/internal/infra/db/sqlite"
	"github.com/bryanwahyu/giterra/internal/infra/github"
	"github.com/bryanwahyu/giterra/internal/infra/storage"
	"github.com/bryanwahyu/giterra/internal/middleware"
)

// App holds every wired service.
type App struct {
	Config    *config.Config
	Log       *slog.Logger
	Store     profile.Store
	Collector *sigapp.Collector
	AI        *aiapp.Service
	Analysis  *analysis.Service
	Planet    *planet.Service
	Metrics   *middleware.Metrics
}

// New connects the store (running migrations when configured), the hosting
// client, the analysis provider and the optional report archive.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	collector := sigapp.NewCollector(HostingClient(cfg), log.With("component", "collector"))
	collector.PageSize = cfg.GitHub.CommitPageSize
	collector.Concurrency = cfg.Analysis.Concurrency

	provider := Provider(cfg)
	narrator := aiapp.NewService(provider, log.With("component", "ai"))
	narrator.MaxCommits = cfg.AI.MaxCommits
	narrator.Concurrency = cfg.Analysis.Concurrency

	metrics := middleware.NewMetrics()
	svc := &analysis.Service{
		Collector:       collector,
		AI:              narrator,
		Store:           store,
		Observer:        metrics,
		Clock:           application.SystemClock{},
		Log:             log.With("component", "analysis"),
		MaxRepositories: cfg.Analysis.MaxRepositories,
		BatchTimeout:    cfg.Analysis.BatchTimeout,
	}

	if cfg.Minio.Enabled {
		archive, err := storage.New(ctx, storage.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.BucketName,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		svc.Archive = archive
	}

	log.Info("services wired",
		"database", cfg.Database.Driver,
		"analysis_source", provider.Source(),
		"archive", cfg.Minio.Enabled,
	)

	return &App{
		Config:    cfg,
		Log:       log,
		Store:     store,
		Collector: collector,
		AI:        narrator,
		Analysis:  svc,
		Planet:    planet.NewService(store),
		Metrics:   metrics,
	}, nil
}

func (a *App) Close() error { return a.Store.Close() }

// HostingClient builds the rate-limited GitHub client.
func HostingClient(cfg *config.Config) *github.Client {
	return github.NewClient(github.Config{
		BaseURL:    cfg.GitHub.BaseURL,
		Token:      cfg.GitHub.Token,
		Timeout:    cfg.GitHub.Timeout,
		MaxRetries: cfg.GitHub.MaxRetries,
		RateLimit:  cfg.GitHub.RateLimit,
		RateBurst:  cfg.GitHub.RateBurst,
	})
}

// Provider picks the LLM when a key is configured and the offline
// narrator otherwise.
func Provider(cfg *config.Config) ai.Provider {
	if cfg.AIProvider() == config.ProviderOpenAI {
		return openai.NewClient(openai.Config{
			APIKey:    cfg.AI.APIKey,
			BaseURL:   cfg.AI.BaseURL,
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
			Timeout:   cfg.AI.Timeout,
		})
	}
	return heuristic.New()
}

// ErrNoSQL is returned by Database for the in-memory driver.
var ErrNoSQL = errors.New("the memory driver has no SQL database")

// Database resolves the SQL dialect and DSN of the configured driver.
func Database(cfg *config.Config) (db.Dialect, string, error) {
	if cfg.Database.Driver == config.DriverMemory {
		return "", "", ErrNoSQL
	}
	d, err := db.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return "", "", err
	}
	switch d {
	case db.MySQL:
		return d, cfg.MySQLDSN(), nil
	case db.Postgres:
		return d, cfg.PostgresDSN(), nil
	default:
		return d, sqlite.DSN(cfg.Database.Path), nil
	}
}

// OpenStore returns the configured profile.Store.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (profile.Store, error) {
	d, dsn, err := Database(cfg)
	if errors.Is(err, ErrNoSQL) {
		log.Warn("using in-memory store, analyses are lost on restart")
		return memory.New(), nil
	}
	if err != nil {
		return nil, err
	}

	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(ctx, d, dsn, -1, log); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	conn, err := db.Open(ctx, d, dsn)
	if err != nil {
		return nil, err
	}
	return db.NewStore(conn, d), nil
}
