package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pfbt/internal/amqp"
	"pfbt/internal/cli"
	applog "pfbt/internal/log"
	"pfbt/internal/worker"
)

const statsInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.DefaultConfig().Level, applog.ComponentWorker)
	logger.Info("Starting pfbt-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger = cli.SetupLogger(cfg.SlogLevel(), applog.ComponentWorker)

	// The worker consumes the feed itself; the store must not publish back into it.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	be := cli.InitBackend(context.Background(), logger.Logger, &storeCfg)
	defer be.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	activity := worker.NewActivityWorker(be.Store)

	ctx, done := cli.GracefulShutdown(logger.Logger, cfg.ShutdownTimeout, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeChanges(gctx, activity.HandleChange)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				processed, skipped := activity.Stats()
				logger.Info("Activity worker stats", "processed", processed, "skipped", skipped)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	processed, skipped := activity.Stats()
	logger.Info("Worker stopped gracefully", "processed", processed, "skipped", skipped)
}
