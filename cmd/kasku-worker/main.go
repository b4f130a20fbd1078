package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kasku/internal/amqp"
	"kasku/internal/config"
	applog "kasku/internal/log"
	"kasku/internal/remote"
	"kasku/internal/remote/memory"
	"kasku/internal/remote/rest"
	"kasku/internal/remote/sheets"
	"kasku/internal/remote/sqlite"
	"kasku/internal/worker"
)

// resyncInterval bounds how stale the mirror can get when broker
// messages are lost.
const resyncInterval = 6 * time.Hour

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting kasku-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("Worker requires AMQP_URL")
		os.Exit(1)
	}
	if cfg.MirrorBackend == cfg.DataBackend {
		logger.Error("Mirror backend must differ from the primary backend",
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	primary, closePrimary, err := newBackend(ctx, cfg, cfg.DataBackend)
	if err != nil {
		logger.Error("Failed to initialize primary backend", "backend", cfg.DataBackend, "error", err)
		os.Exit(1)
	}
	if closePrimary != nil {
		defer closePrimary()
	}

	mirror, closeMirror, err := newBackend(ctx, cfg, cfg.MirrorBackend)
	if err != nil {
		logger.Error("Failed to initialize mirror backend", "backend", cfg.MirrorBackend, "error", err)
		os.Exit(1)
	}
	if closeMirror != nil {
		defer closeMirror()
	}
	logger.Info("Backends initialized", "primary", cfg.DataBackend, "mirror", cfg.MirrorBackend)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(primary, mirror)

	// Startup resync picks up changes missed while the worker was down.
	logger.Info("Performing startup resync...")
	if err := mirrorWorker.Resync(ctx); err != nil {
		logger.Error("Startup resync incomplete", "error", err)
		// Consumption still converges the mirror going forward.
	}

	go func() {
		ticker := time.NewTicker(resyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mirrorWorker.Resync(ctx); err != nil {
					logger.Error("Periodic resync incomplete", "error", err)
				}
			}
		}
	}()

	logger.Info("Consuming ledger changes", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeLedgerChanges(ctx, func(msg *amqp.LedgerChangeMessage) error {
		return mirrorWorker.HandleChange(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}

// newBackend mirrors the server's backend switch; the worker opens two.
func newBackend(ctx context.Context, cfg *config.Config, backend string) (remote.Store, func() error, error) {
	switch backend {
	case "memory":
		return memory.New(), nil, nil
	case "rest":
		return rest.NewClient(cfg.RESTBaseURL, cfg.RESTAPIKey), nil, nil
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "sheets":
		cli, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:     cfg.GoogleSpreadsheetID,
			TransactionsSheet: cfg.GoogleTransactionsSheet,
			EventsSheet:       cfg.GoogleEventsSheet,
			CredentialsJSON:   cfg.GoogleServiceAccountJSON,
			CredentialsFile:   cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, nil, err
		}
		return cli, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}
