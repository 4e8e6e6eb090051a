package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"moneybook/internal/backend"
	"moneybook/internal/cli"
	"moneybook/internal/events"
	"moneybook/internal/export"
	"moneybook/internal/log"
	"moneybook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("failed to initialize backend",
			log.FieldBackend, cfg.DataBackend,
			log.FieldError, err,
		)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	exporter, err := export.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
	if err != nil {
		logger.Error("failed to initialize exporter", log.FieldError, err)
		os.Exit(1)
	}

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewExportWorker(result.Backend, exporter, logger)

	// Recover rows that missed their events while the worker was down.
	if err := w.ExportBacklog(ctx); err != nil {
		logger.Error("startup backlog export failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeTransactionCreated(gctx, func(msg *events.TransactionCreatedMessage) error {
			return w.HandleTransactionCreated(gctx, msg)
		})
	})

	logger.Info("export worker started",
		"queue", cfg.AMQPQueue,
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
	)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
