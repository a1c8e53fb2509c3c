package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"reservation-service/internal/infra/postgres"
	"reservation-service/internal/infra/postgres/migrations"
	"reservation-service/internal/job"
	"reservation-service/pkg/locker"
)

func migrateUpAction(_ context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := migrations.Run(rt.db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	rt.log.Info("database migrations completed")

	return nil
}

func migrateRollbackAction(_ context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := migrations.Rollback(rt.db); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	rt.log.Info("last migration rolled back")

	return nil
}

func migrateStatusAction(_ context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	pending, err := migrations.Pending(rt.db)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	if len(pending) == 0 {
		fmt.Fprintln(os.Stdout, "schema is up to date")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%d pending: %s\n", len(pending), strings.Join(pending, ", "))

	return nil
}

// auditAction runs the overlap audit once, for cron jobs and manual checks.
// It exits non-zero when overlaps are found.
func auditAction(ctx context.Context, cmd *cli.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	redisClient, err := connectRedis(ctx, rt.cfg.Redis, rt.log.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	if cmd.Bool("force") {
		// The cooldown lock belongs to whichever instance ran last.
		if err := redisClient.Del(ctx, job.AuditLockKey).Err(); err != nil {
			rt.log.Warn("clearing audit cooldown", zap.Error(err))
		}
	}

	scheduler := job.NewAuditScheduler(
		postgres.NewReservationRepository(rt.db),
		job.AuditConfig{
			Interval: rt.cfg.Audit.Interval,
			Timeout:  rt.cfg.Audit.Timeout,
		},
		rt.log.Named("audit"),
		locker.NewRedisLocker(redisClient, rt.log.Named("locker")),
	)

	report := scheduler.RunOnce(ctx)
	switch {
	case report.Err != nil:
		return fmt.Errorf("overlap audit: %w", report.Err)
	case report.Skipped:
		fmt.Fprintln(os.Stdout, "audit skipped: another instance ran it recently (use --force)")
	case len(report.Overlaps) > 0:
		return fmt.Errorf("found %d overlapping reservation pairs", len(report.Overlaps))
	default:
		fmt.Fprintln(os.Stdout, "no overlapping reservations")
	}

	return nil
}
