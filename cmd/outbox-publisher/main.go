package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/boost-backend/internal/relay"
	"github.com/angelmondragon/boost-backend/pkg/config"
	"github.com/angelmondragon/boost-backend/pkg/db"
	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/metrics"
	"github.com/angelmondragon/boost-backend/pkg/migrate"
	"github.com/angelmondragon/boost-backend/pkg/outbox"
	"github.com/angelmondragon/boost-backend/pkg/outbox/registry"
	"github.com/angelmondragon/boost-backend/pkg/pubsub"
)

const serviceName = "outbox-publisher"

func main() {
	replay := flag.String("replay", "", "outbox event id to requeue after it was dead-lettered, then exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": serviceName})

	if *replay != "" {
		if err := replayDead(ctx, cfg, logg, *replay); err != nil {
			logg.Error(ctx, "replay failed", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return err
	}
	defer psClient.Close()

	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return err
	}

	r, err := relay.New(relay.Params{
		Logger:      logg,
		Tx:          dbClient,
		Store:       outbox.NewRepository(dbClient.DB()),
		Resolver:    events,
		Sink:        psClient,
		Metrics:     metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
		Poll:        time.Duration(cfg.Outbox.PollIntervalMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}

	go func() {
		if err := metrics.ServeWorker(ctx, ":"+cfg.App.Port, serviceName, logg); err != nil {
			logg.Error(ctx, "worker metrics server failed", err)
		}
	}()

	logg.Info(ctx, "outbox publisher started")
	return r.Run(ctx)
}

func replayDead(ctx context.Context, cfg *config.Config, logg *logger.Logger, raw string) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", raw, err)
	}
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	ok, err := outbox.NewRepository(dbClient.DB()).ReplayDead(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("event %s is not dead-lettered", id)
	}
	logg.Info(logg.WithField(ctx, "outbox_id", id.String()), "relay.replay_requeued")
	return nil
}
