package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/credit-ledger/internal/config"
	"github.com/josh-kwaku/credit-ledger/internal/domain"
	"github.com/josh-kwaku/credit-ledger/internal/handler"
	"github.com/josh-kwaku/credit-ledger/internal/ledger"
	"github.com/josh-kwaku/credit-ledger/internal/logging"
	"github.com/josh-kwaku/credit-ledger/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.Options{Service: "credit-ledger", Level: cfg.LogLevel, AppEnv: cfg.AppEnv})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	pub, err := openPublisher(cfg)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
	}

	svc := ledger.NewService(store, pub)

	if cfg.SeedDefaultAccounts {
		n, err := svc.Provision(ctx, domain.DefaultAccounts)
		if err != nil {
			return fmt.Errorf("run: provision accounts: %w", err)
		}
		slog.Info("accounts provisioned", "created", n, "total", len(domain.DefaultAccounts))
	}

	router := handler.NewRouter(
		handler.NewLedgerHandler(svc),
		handler.NewHealthHandler(store, cfg.StorageBackend),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Chain(router, middleware.Recovery, middleware.Tracing, middleware.Logging),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started",
			"addr", addr,
			"storage_backend", cfg.StorageBackend,
			"events_backend", cfg.EventsBackend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("run: shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
