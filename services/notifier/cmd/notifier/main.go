package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"dishdecide/internal/util"
	"dishdecide/pkg/feed"
	"dishdecide/pkg/notify"
	"dishdecide/services/notifier/internal/app"
	"dishdecide/services/notifier/internal/config"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	changeFeed, err := feed.New(cfg.RedisAddr, cfg.RedisPassword, "")
	if err != nil {
		util.Fatal("failed to connect change feed", "err", err)
	}
	defer changeFeed.Close()

	consumer, err := notify.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		util.Fatal("failed to connect event bus", "err", err)
	}
	defer consumer.Close()

	core, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Feed:        changeFeed,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("notifier consuming", "queue", cfg.AMQPQueue)
	if err := consumer.Run(ctx, logger, core.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
}
