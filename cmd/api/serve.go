package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"reservation-service/internal/app/service"
	"reservation-service/internal/domain"
	"reservation-service/internal/infra/postgres"
	"reservation-service/internal/infra/postgres/migrations"
	rediscache "reservation-service/internal/infra/redis"
	"reservation-service/internal/job"
	"reservation-service/internal/transport/httpserver"
	"reservation-service/internal/transport/httpserver/middleware"
	"reservation-service/pkg/locker"
)

const shutdownTimeout = 10 * time.Second

func serveAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg, log := rt.cfg, rt.log.Logger

	log.Info("starting reservation-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	if err := migrations.Run(rt.db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations completed")

	redisClient, err := connectRedis(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}
	clock := domain.ZoneClock{Location: loc}

	reservations := postgres.NewReservationRepository(rt.db)
	customers := postgres.NewCustomerRepository(rt.db)

	redisLocker := locker.NewRedisLocker(redisClient, log.Named("locker"))
	coordinator := locker.NewCoordinator(redisLocker, locker.CoordinatorConfig{
		KeyPrefix:      cfg.Lock.KeyPrefix,
		WaitTimeout:    cfg.Lock.WaitTimeout,
		LeaseDuration:  cfg.Lock.LeaseDuration,
		RetryDelay:     cfg.Lock.RetryDelay,
		ReleaseTimeout: cfg.Lock.ReleaseTimeout,
	}, log.Named("locker"))

	publisher, err := newEventPublisher(cfg.Events, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("closing event publisher", zap.Error(err))
		}
	}()
	log.Info("event publisher ready", zap.String("driver", cfg.Events.Driver))

	conflicts := service.NewConflictDetector(reservations, cfg.Booking.StoreTimeout)
	bookingSvc := service.NewBookingService(service.BookingDeps{
		Reservations: reservations,
		Customers:    service.NewCustomerService(customers, cfg.Booking.StoreTimeout, log),
		Conflicts:    conflicts,
		Locks:        coordinator,
		Events:       publisher,
		Clock:        clock,
		StoreTimeout: cfg.Booking.StoreTimeout,
	}, log)
	availabilitySvc := service.NewAvailabilityService(conflicts, clock, log)

	readiness := []middleware.ReadinessCheck{
		func(ctx context.Context) error { return postgres.HealthCheck(ctx, rt.db) },
	}

	var cache domain.Cache
	if cfg.Cache.Enabled {
		redisCache := rediscache.NewCache(redisClient, log, cfg.Cache.KeyPrefix)
		cache = redisCache
		readiness = append(readiness, redisCache.Ping)
		log.Info("idempotent replay enabled",
			zap.Duration("ttl", cfg.Cache.TTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		readiness = append(readiness, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		log.Info("idempotent replay disabled")
	}

	serverCfg := httpserver.ServerConfig{
		Port:           cfg.App.Port,
		BodyLimit:      1024 * 1024, // 1MB
		IdempotencyTTL: cfg.Cache.TTL,
	}
	if cfg.RateLimit.Enabled {
		serverCfg.RateLimit = &middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		}
	}

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		Bookings:     bookingSvc,
		Availability: availabilitySvc,
		Cache:        cache,
		Readiness:    readiness,
	}, log)

	var scheduler *job.AuditScheduler
	if cfg.Audit.Enabled {
		scheduler = job.NewAuditScheduler(
			reservations,
			job.AuditConfig{
				Interval:  cfg.Audit.Interval,
				Timeout:   cfg.Audit.Timeout,
				OnStartup: cfg.Audit.OnStartup,
			},
			log.Named("audit"),
			redisLocker,
		)
		scheduler.Start(cfg.Audit.OnStartup)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.App.Port)
	}()

	select {
	case err := <-serverErr:
		scheduler.Stop()
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// In-flight bookings finish first so their locks are released normally.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.App.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
	scheduler.Stop()

	if err := <-serverErr; err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("server stopped with error", zap.Error(err))
	}
	log.Info("reservation-service stopped")

	return nil
}
