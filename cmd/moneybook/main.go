package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"moneybook/internal/backend"
	"moneybook/internal/cli"
	"moneybook/internal/events"
	apphttp "moneybook/internal/http"
	"moneybook/internal/log"
	"moneybook/internal/metrics"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

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

	// Event publishing is optional; the dashboard works without a broker.
	var publisher apphttp.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("failed to initialize event publisher, continuing without export events",
				log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, publisher, logger, metrics.New(), cfg.RefreshDelay)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"events_enabled", publisher != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
