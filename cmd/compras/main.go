package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"compras/internal/cache"
	"compras/internal/cli"
	"compras/internal/core"
	"compras/internal/dataset"
	"compras/internal/feedback"
	apphttp "compras/internal/http"
	"compras/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	// Dataset: loaded once up front so a bad file stops the process.
	loader := dataset.NewLoader(cfg.DatasetCacheSize, cfg.DatasetCacheTTL, logger)
	source := dataset.NewFileSource(loader, cfg.DatasetPath)
	table, err := source.Table(context.Background())
	if err != nil {
		var loadErr *core.DataLoadError
		if errors.As(err, &loadErr) {
			logger.Error("Failed to load dataset",
				log.NewFields().WithOperation(log.OpStartup).WithError(loadErr.Err).With(log.FieldDataset, loadErr.Path).ToSlice()...)
		} else {
			logger.Error("Failed to load dataset", log.FieldError, err)
		}
		os.Exit(1)
	}
	logger.Info("Dataset ready", log.NewFields().WithTable(table).With(log.FieldDropped, table.Dropped).ToSlice()...)

	caches := cache.NewManager()
	caches.Register("dataset", loader.Cache())
	caches.StartCleanup(10 * time.Minute)

	// Feedback survey: configured store, optional AMQP notifications.
	store := cli.InitFeedbackStore(context.Background(), logger, cfg)

	var publisher feedback.Publisher
	amqpClient := cli.InitAMQP(logger, cfg, false)
	if amqpClient != nil {
		publisher = amqpClient
	}
	feedbackSvc := feedback.NewService(store.Store, publisher, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Source:             source,
		Feedback:           feedbackSvc,
		Logger:             logger,
		PreviewRows:        cfg.TablePreviewRows,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		Caches:             caches,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := store.Cleanup(); err != nil {
			logger.Warn("Feedback database close error", log.FieldError, err)
		}
	})

	logger.Info("Starting compras server", "port", cfg.Port, log.FieldDataset, source.Path())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
