package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kasku/internal/amqp"
	"kasku/internal/config"
	apphttp "kasku/internal/http"
	"kasku/internal/ledger"
	applog "kasku/internal/log"
	"kasku/internal/receipt"
	"kasku/internal/remote"
	"kasku/internal/remote/memory"
	"kasku/internal/remote/rest"
	"kasku/internal/remote/sheets"
	"kasku/internal/remote/sqlite"
	"kasku/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newBackend(ctx, cfg, cfg.DataBackend)
	if err != nil {
		logger.Error("Failed to initialize data backend", "backend", cfg.DataBackend, "error", err)
		os.Exit(1)
	}
	if closeStore != nil {
		defer closeStore()
	}
	logger.Info("Data backend initialized", "backend", cfg.DataBackend)

	// Mirror propagation is optional: without a broker the ledger still
	// works, only the mirror lags until the next worker resync.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledgerStore := ledger.New(store)
	if err := ledgerStore.Load(ctx); err != nil {
		logger.Error("Failed to load ledger from backend", "backend", cfg.DataBackend, "error", err)
		os.Exit(1)
	}

	svc := services.NewLedgerService(ledgerStore, publisher)
	defer svc.Close()

	gen := receipt.NewGenerator(cfg.BaseURL)
	pdf := receipt.NewPDFRenderer(cfg.OrgName)

	srv := apphttp.NewServer(":"+cfg.Port, svc, gen, pdf, apphttp.Options{
		Treasurers: cfg.Treasurers,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting kasku server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// newBackend constructs the remote store named by backend. The returned
// close func is nil when the backend holds no resources.
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
