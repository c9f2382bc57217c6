package main

import (
	"context"
	"errors"
	"os"
	"time"

	"smartexpense/internal/amqp"
	"smartexpense/internal/cli"
	"smartexpense/internal/log"
	"smartexpense/internal/worker"
)

const summaryInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(os.Stdout, log.ComponentWorker, cfg)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the activity worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	w := worker.NewActivityWorker(logger.Logger)

	ctx, done := cli.GracefulShutdown(logger, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
	})

	go w.RunSummary(ctx, summaryInterval)

	logger.Info("Starting activity worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	if err := client.ConsumeActivity(ctx, w.HandleActivity); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Activity consumer stopped", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Activity worker stopped")
}
