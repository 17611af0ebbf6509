package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanwahyu/giterra/internal/bootstrap"
	"github.com/bryanwahyu/giterra/internal/config"
	"github.com/bryanwahyu/giterra/internal/infra/httpserver"
	"github.com/bryanwahyu/giterra/internal/logging"
	"github.com/bryanwahyu/giterra/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "giterra:", err)
		os.Exit(1)
	}
}

func run() error {
	// path config.yaml; a missing default file means defaults plus env
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	} else if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}
	log := logging.New(os.Stdout, logging.LevelFromString(cfg.Log.Level), logging.Format(cfg.Log.Format))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ready := &middleware.Readiness{}
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	defer limiter.Close()

	handler := httpserver.NewRouter(httpserver.Deps{
		Analysis: app.Analysis,
		Planet:   app.Planet,
		Repos:    app.Collector,
		Log:      log,
		Metrics:  app.Metrics,
		Limiter:  limiter,
		Ready:    ready,
		Health: map[string]middleware.HealthChecker{
			"database": middleware.CheckFunc(app.Store.Ping),
		},
		APIKeys:     cfg.Auth.APIKeys,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	ready.Set(true)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	// graceful shutdown
	ready.Set(false)
	log.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
