package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockfetcher/internal/config"
	"stockfetcher/internal/coordinator"
	"stockfetcher/internal/nasdaq"
	"stockfetcher/internal/postgres"
	"stockfetcher/internal/ratelimit"
	"stockfetcher/internal/tickers"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received interrupt signal, shutting down")
		cancel()
	}()

	os.Exit(run(ctx, cfg))
}

// run executes the pipeline and returns the process exit code: 0 when
// the run completed, even with failed tickers; non-zero when the
// pipeline could not execute at all. A dependent serving process is
// only started when this exits 0.
func run(ctx context.Context, cfg *config.Config) int {
	store, err := postgres.Connect(ctx, postgres.Config{
		Name:     cfg.DBName,
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		slog.Error("store connection setup failed", "error", err)
		return 1
	}
	defer store.Close()

	// The readiness gate blocks until the database is reachable and
	// the schema exists. DB_WAIT_TIMEOUT bounds the wait; zero waits
	// forever.
	gateCtx := ctx
	if cfg.DBWaitTimeout > 0 {
		var gateCancel context.CancelFunc
		gateCtx, gateCancel = context.WithTimeout(ctx, cfg.DBWaitTimeout)
		defer gateCancel()
	}
	if err := store.WaitReady(gateCtx); err != nil {
		slog.Error("database never became ready", "error", err)
		return 1
	}

	symbols, err := tickers.Load(cfg.TickersFile)
	if err != nil {
		if errors.Is(err, tickers.ErrNoTickers) {
			slog.Warn("ticker list is empty, nothing to fetch", "file", cfg.TickersFile)
			return 0
		}
		slog.Error("failed to load tickers", "file", cfg.TickersFile, "error", err)
		return 1
	}

	source := nasdaq.New(nasdaq.Options{
		BaseURL: cfg.NasdaqBaseURL,
		Timeout: cfg.RequestTimeout,
		Limiter: ratelimit.PerSecond(cfg.RequestsPerSec),
	})

	coord := coordinator.New(source, store, coordinator.Config{
		Workers:  cfg.WorkerCount,
		MaxPages: cfg.MaxPages,
	})

	slog.Info("starting fetch pipeline",
		"tickers", len(symbols),
		"workers", cfg.WorkerCount,
		"max_pages", cfg.MaxPages)

	start := time.Now()
	result, err := coord.Run(ctx, symbols)
	if err != nil {
		slog.Error("pipeline failed to run", "error", err)
		return 1
	}

	slog.Info("fetch pipeline finished",
		"run_id", result.RunID,
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"records_written", result.RecordsWritten(),
		"elapsed", time.Since(start).Round(time.Millisecond))

	if ctx.Err() != nil {
		slog.Warn("run was interrupted before completion")
		return 1
	}
	return 0
}
