package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"famspend/internal/amqp"
	"famspend/internal/backend"
	"famspend/internal/cli"
	"famspend/internal/core"
	"famspend/internal/fx"
	apphttp "famspend/internal/http"
	"famspend/internal/ledger"
	applog "famspend/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	result, err := backend.Create(ctx, cfg, logger)
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

	opts := []ledger.Option{ledger.WithQueueCap(cfg.QueueCap)}
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, ledger.WithEvents(amqpClient))
			logger.Info("Initialized AMQP events",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := ledger.NewService(result.Store, resolver, pendingStore,
		core.CurrencyCode(cfg.BaseCurrency), logger, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger,
		apphttp.WithDefaultFamily(cfg.FamilyID))
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting famspend server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"base_currency", cfg.BaseCurrency)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
