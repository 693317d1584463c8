package main

import (
	"context"
	"os"
	"strings"

	expamqp "expenser/internal/amqp"
	"expenser/internal/api"
	"expenser/internal/cache"
	"expenser/internal/cli"
	"expenser/internal/commands"
	"expenser/internal/core"
	"expenser/internal/importer"
	"expenser/internal/log"
	"expenser/internal/notify"
	"expenser/internal/services"
	"expenser/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	sessions := session.NewStore(cfg.SessionFile, cfg.SessionTTL)
	apiClient := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, sessions, logger)
	queryCache := cache.NewLRUCache[any](cfg.CacheMaxSize, cfg.CacheTTL)

	// The review loop can keep the process alive well past the TTL, so
	// expired collections are swept in the background.
	cacheManager := cache.NewManager()
	cacheManager.Register(queryCache)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	notifier := notify.Multi{
		notify.NewConsole(os.Stdout),
		notify.NewLog(logger),
	}

	// Activity events are optional; without a broker the CLI works the
	// same but records no history.
	var publisher services.Publisher
	var onSkip func(ctx context.Context, c core.Candidate)
	if cfg.AMQPURL != "" {
		amqpClient, err := expamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, activity events disabled",
				log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			onSkip = func(ctx context.Context, c core.Candidate) {
				msg := expamqp.NewActivityMessage(expamqp.ActionSkip, strings.ToLower(string(c.Kind))+"s")
				msg.Name = c.Name
				msg.Amount = c.Amount
				msg.Date = c.Date.String()
				msg.Source = "bulk-import"
				if err := amqpClient.PublishActivity(ctx, msg); err != nil {
					logger.WarnContext(ctx, "Skip activity event not published",
						log.FieldError, err)
				}
			}
		}
	}

	service := services.NewService(apiClient, queryCache, sessions, notifier, publisher, logger)

	gate := importer.Gate{
		MinBytes: cfg.UploadMinBytes,
		MaxBytes: cfg.UploadMaxBytes,
	}
	pipeline := importer.NewPipeline(apiClient, gate, service, notifier, onSkip, logger)

	root := commands.NewRootCommand(&commands.Deps{
		Config:   cfg,
		Sessions: sessions,
		Service:  service,
		Pipeline: pipeline,
		Notifier: notifier,
		Logger:   logger,
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
