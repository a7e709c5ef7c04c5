package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/config"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/db"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/jobs"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/ledger"
	"github.com/avdheshcharjan/microloan-ripple-hackathon/internal/observability"
	postgresrepo "github.com/avdheshcharjan/microloan-ripple-hackathon/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("local", "microloan-worker").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.Env, "microloan-worker")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	ledgerClient := ledger.NewClient(cfg.LedgerWSURL, cfg.LedgerTimeout)
	defer ledgerClient.Close()

	worker := jobs.NewWorker(
		postgresrepo.NewOutboxRepository(pool),
		postgresrepo.NewLoanRepository(pool),
		ledgerClient,
	)

	interval := cfg.WorkerPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started", "interval", interval.String(), "batch_size", cfg.WorkerBatchSize)
	for {
		select {
		case <-sigCtx.Done():
			logger.Info("worker stopped")
			return
		case <-ticker.C:
			runCtx, runCancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := worker.RunOnce(runCtx, cfg.WorkerBatchSize)
			runCancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker run failed", "err", err)
			}
		}
	}
}
