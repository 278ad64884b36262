package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"famspend/internal/amqp"
	"famspend/internal/backend"
	"famspend/internal/cli"
	"famspend/internal/core"
	"famspend/internal/fx"
	"famspend/internal/ledger"
	applog "famspend/internal/log"
	"famspend/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting famspend-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	result, err := backend.Create(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend",
			applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	pendingStore := cli.InitPendingStore(logger, cfg.QueueDBPath)
	defer pendingStore.Close()

	resolver := fx.NewClient(cfg.FxBaseURL, cfg.FxTimeout, logger)
	svc := ledger.NewService(result.Store, resolver, pendingStore,
		core.CurrencyCode(cfg.BaseCurrency), logger,
		ledger.WithQueueCap(cfg.QueueCap))

	replayWorker := worker.NewReplayWorker(svc, cfg.ReplayInterval, logger)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, ctx := errgroup.WithContext(shutdownCtx)

	g.Go(func() error {
		return replayWorker.Run(ctx)
	})

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			// Any ledger event means the remote store is reachable, so a
			// replay pass is worth attempting right away.
			return amqpClient.Consume(ctx, func(msg *amqp.EventMessage) error {
				logger.InfoContext(ctx, "Ledger event received",
					"type", msg.Type, applog.FieldFamilyID, msg.FamilyID)
				replayWorker.ReplayNow(ctx)
				return nil
			})
		})
	} else {
		logger.Info("AMQP disabled, relying on periodic replay only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
