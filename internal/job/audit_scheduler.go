// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"reservation-service/internal/domain"
	"reservation-service/pkg/locker"
)

// AuditLockKey is the cluster-wide lock guarding one audit run.
const AuditLockKey = "reservation:audit:lock"

// AuditScheduler periodically scans persisted reservations for overlaps.
// Overlaps can only appear if the locking protocol was bypassed, so every
// finding is logged at error level.
type AuditScheduler struct {
	repo     domain.ReservationRepository
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	locker   locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// AuditConfig holds audit scheduler configuration.
type AuditConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// AuditReport summarizes one audit run.
type AuditReport struct {
	Skipped  bool
	Overlaps []domain.OverlapPair
	Err      error
}

// NewAuditScheduler creates a new AuditScheduler.
func NewAuditScheduler(
	repo domain.ReservationRepository,
	cfg AuditConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *AuditScheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &AuditScheduler{
		repo:     repo,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
		locker:   locker,
	}
}

// Start begins the background audit loop.
func (s *AuditScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting audit scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop cancels the loop and waits for a running audit to finish.
// It is a no-op on a nil or never-started scheduler.
func (s *AuditScheduler) Stop() {
	if s == nil || s.cancel == nil {
		return
	}

	s.logger.Info("stopping audit scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("audit scheduler stopped")
}

func (s *AuditScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.RunOnce(s.ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(s.ctx)
		}
	}
}

// RunOnce performs one audit if no other instance ran one within the interval.
//
// Locking follows a cooldown model: on success the lock is kept until it
// expires after one interval, so the cluster audits at most once per interval.
// On failure it is released so another instance may retry right away.
func (s *AuditScheduler) RunOnce(ctx context.Context) AuditReport {
	acquired, err := s.locker.Acquire(ctx, AuditLockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire audit lock", zap.Error(err))

		return AuditReport{Err: err}
	}
	if !acquired {
		s.logger.Debug("another instance ran the audit recently, skipping")

		return AuditReport{Skipped: true}
	}

	auditCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pairs, err := s.repo.FindOverlappingPairs(auditCtx)
	if err != nil {
		if relErr := s.locker.Release(context.WithoutCancel(ctx), AuditLockKey); relErr != nil {
			s.logger.Error("failed to release audit lock after error", zap.Error(relErr))
		}
		s.logger.Warn("overlap audit failed, lock released for retry", zap.Error(err))

		return AuditReport{Err: err}
	}

	for _, p := range pairs {
		s.logger.Error("overlapping reservations detected",
			zap.String("first_id", p.FirstID),
			zap.String("second_id", p.SecondID),
			zap.Stringer("overlap_start", p.Overlap.Start),
			zap.Stringer("overlap_end", p.Overlap.End),
		)
	}

	s.logger.Info("overlap audit completed, lock held for cooldown",
		zap.Int("overlaps", len(pairs)),
		zap.Duration("cooldown", s.interval),
	)

	return AuditReport{Overlaps: pairs}
}
