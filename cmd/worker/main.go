package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hollisdev/agencydesk/internal"
	"github.com/hollisdev/agencydesk/internal/repository"
	"github.com/hollisdev/agencydesk/internal/telemetry"
	"github.com/hollisdev/agencydesk/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	nc, err := nats.Connect(cfg.Nats.URL, nats.Name("agencydesk-worker"))
	if err != nil {
		return fmt.Errorf("nats connection failed: %w", err)
	}
	defer nc.Close()
	logger.Info().Str("url", cfg.Nats.URL).Msg("connected to nats")

	w := worker.NewWorker(nc, repository.New(pool), telemetry.NewBusinessMetrics(), worker.Config{
		Subject: cfg.Nats.Subject,
	}, logger)

	logger.Info().Str("subject", cfg.Nats.Subject).Msg("webhook worker starting")
	return w.Start(ctx)
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("worker error: %v", err)
	}
}
