package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/canyonbook-backend/internal/guides"
	"github.com/angelmondragon/canyonbook-backend/internal/notifications"
	"github.com/angelmondragon/canyonbook-backend/internal/resellers"
	"github.com/angelmondragon/canyonbook-backend/pkg/config"
	"github.com/angelmondragon/canyonbook-backend/pkg/db"
	"github.com/angelmondragon/canyonbook-backend/pkg/instance"
	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/canyonbook-backend/pkg/outbox/registry"
	"github.com/angelmondragon/canyonbook-backend/pkg/pubsub"
	"github.com/angelmondragon/canyonbook-backend/pkg/redis"
)

const serviceName = "worker"

func main() {
	bootCtx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(bootCtx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(bootCtx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(bootCtx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(bootCtx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing pubsub client", err)
		}
	}()

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		logg.Error(bootCtx, "failed to build event registry", err)
		os.Exit(1)
	}

	guard, err := idempotency.NewGuard(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		logg.Error(bootCtx, "failed to create idempotency guard", err)
		os.Exit(1)
	}

	notificationConsumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		Repo:     notifications.NewRepository(dbClient.DB()),
		Registry: eventRegistry,
		Recipients: notifications.Recipients{
			Guides:    guides.NewRepository(dbClient.DB()),
			Resellers: resellers.NewRepository(dbClient.DB()),
		},
		Subscription: pubsubClient.DomainSubscription(),
		Guard:        guard,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create notification consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Logger: logg,
		Dependencies: map[string]pinger{
			"database": dbClient,
			"redis":    redisClient,
			"pubsub":   pubsubClient,
		},
		Consumers: map[string]runner{
			"booking-notifications": notificationConsumer,
		},
	})
	if err != nil {
		logg.Error(bootCtx, "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(bootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  serviceName,
		"subscription": cfg.PubSub.DomainSubscription,
		"instance":     instance.GetID(),
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
