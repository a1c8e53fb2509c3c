package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"reservation-service/internal/config"
	"reservation-service/internal/domain"
	"reservation-service/internal/infra/events"
	"reservation-service/internal/infra/events/kafka"
	"reservation-service/internal/infra/events/webhook"
	"reservation-service/internal/infra/postgres"
	"reservation-service/internal/logger"
)

// runtime holds what every command needs: config, logger and the database.
type runtime struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap(cmd *cli.Command) (*runtime, error) {
	if err := config.LoadDotEnv(cmd.String("env")); err != nil {
		return nil, err
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(
		logger.Config{
			Level:   cfg.Logger.Level,
			Format:  cfg.Logger.Format,
			Output:  cfg.Logger.Output,
			Service: cfg.App.Name,
			Env:     cfg.App.Env,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, err := postgres.NewConnection(
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,

			AppName:          cfg.App.Name,
			ConnectTimeout:   cfg.Database.ConnectTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
			ConnectAttempts:  cfg.Database.ConnectAttempts,
			Debug:            cfg.App.Debug,
		},
		log.Logger,
	)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &runtime{cfg: cfg, log: log, db: db}, nil
}

// Close releases the database and flushes the logger.
func (r *runtime) Close() {
	if err := postgres.Close(r.db); err != nil {
		r.log.Warn("closing database", zap.Error(err))
	}
	_ = r.log.Sync()
}

// connectRedis opens the client shared by locks, audit cooldown and idempotency.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr(), err)
	}

	log.Info("connected to Redis", zap.String("addr", cfg.Addr()))

	return client, nil
}

// newEventPublisher builds the publisher selected by events.driver.
func newEventPublisher(cfg config.EventsConfig, log *zap.Logger) (domain.EventPublisher, error) {
	switch cfg.Driver {
	case "kafka":
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			Source:       cfg.Source,
			RequiredAcks: cfg.Kafka.RequiredAcks,
			Compression:  cfg.Kafka.Compression,
			MaxAttempts:  cfg.Kafka.MaxAttempts,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, log.Named("kafka"))
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return pub, nil
	case "webhook":
		return webhook.NewPublisher(webhook.Config{
			BaseURL:  cfg.Webhook.BaseURL,
			Endpoint: cfg.Webhook.Endpoint,
			Source:   cfg.Source,
			Secret:   cfg.Webhook.Secret,
			Timeout:  cfg.Webhook.Timeout,
			Retry: webhook.RetryConfig{
				MaxAttempts: cfg.Webhook.Retry.MaxAttempts,
				WaitTime:    cfg.Webhook.Retry.WaitTime,
				MaxWaitTime: cfg.Webhook.Retry.MaxWaitTime,
			},
			CB: webhook.CBConfig{
				MaxRequests:  cfg.Webhook.CB.MaxRequests,
				Interval:     cfg.Webhook.CB.Interval,
				Timeout:      cfg.Webhook.CB.Timeout,
				FailureRatio: cfg.Webhook.CB.FailureRatio,
			},
		}, log.Named("webhook")), nil
	case "", "none":
		return events.NewNoopPublisher(log), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
