package main

import (
	"context"
	"errors"
	"os"
	"time"

	"compras/internal/cache"
	"compras/internal/cli"
	"compras/internal/log"
	"compras/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentAMQP)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting compras-feedback-worker", "queue", cfg.AMQPQueue)
	amqpClient := cli.InitAMQP(logger, cfg, true)

	w := worker.NewFeedbackWorker(logger)
	caches := cache.NewManager()
	caches.Register("feedback-seen", w.Cache())
	caches.StartCleanup(time.Hour)

	runCtx, stop := context.WithCancel(context.Background())
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		stop()
		caches.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
	})

	go w.Run(runCtx, cfg.DigestInterval)

	go func() {
		err := amqpClient.ConsumeFeedback(runCtx, w.HandleFeedback)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Feedback consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
