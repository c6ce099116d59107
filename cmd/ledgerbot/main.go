package main

import (
	"os"
	"time"

	"ledgerbot/internal/chat"
	"ledgerbot/internal/cli"
	"ledgerbot/internal/core"
	"ledgerbot/internal/currency"
	"ledgerbot/internal/engine"
	"ledgerbot/internal/events"
	"ledgerbot/internal/log"
	"ledgerbot/internal/session"
	"ledgerbot/internal/transport/botapi"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.BotToken == "" {
		logger.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	stores := cli.OpenBackend(logger, cfg)

	rates := currency.NewCached(
		currency.NewClient(cfg.CurrencyAPIURL, cfg.CurrencyAPIKey, cfg.CurrencyTimeout, logger),
		cfg.RateCacheTTL,
	)

	var publisher events.Publisher
	var amqpClient *events.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP URL not set, event publishing disabled")
	}

	sessions := session.NewStore(cfg.SessionTimeout, logger)
	transport := botapi.New(cfg.BotAPIBaseURL, cfg.BotToken, cfg.PollTimeout, logger)

	eng := engine.New(engine.Options{
		Users:      stores.Users,
		Groups:     stores.Groups,
		Rates:      rates,
		Advisor:    chat.NewLocal(),
		Sender:     transport,
		Publisher:  publisher,
		Sessions:   sessions,
		Categories: cfg.Categories,
		Logger:     logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
		if err := stores.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	go sessions.RunSweeper(ctx, cfg.SweepInterval, func(id core.UserID) {
		eng.NotifyTimeout(ctx, id)
	})

	logger.Info("Bot started", log.FieldOperation, log.OpStartup)
	if err := transport.Poll(ctx, eng.HandleUpdate); err != nil && ctx.Err() == nil {
		logger.Error("Polling stopped", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
}
