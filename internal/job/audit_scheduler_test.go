package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"reservation-service/internal/domain"
	"reservation-service/pkg/locker"
)

// pairsRepo serves FindOverlappingPairs; other methods are not used by the audit.
type pairsRepo struct {
	domain.ReservationRepository
	pairs []domain.OverlapPair
	err   error
	calls atomic.Int32
}

func (r *pairsRepo) FindOverlappingPairs(context.Context) ([]domain.OverlapPair, error) {
	r.calls.Add(1)
	return r.pairs, r.err
}

func setup(t *testing.T, repo *pairsRepo) (*AuditScheduler, *miniredis.Miniredis, *observer.ObservedLogs) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	s := NewAuditScheduler(repo, AuditConfig{Interval: time.Minute, Timeout: time.Second}, logger,
		locker.NewRedisLocker(client, zap.NewNop()))

	return s, mr, logs
}

func TestAuditScheduler_RunOnce_Clean(t *testing.T) {
	repo := &pairsRepo{}
	s, mr, logs := setup(t, repo)

	report := s.RunOnce(context.Background())

	require.NoError(t, report.Err)
	assert.False(t, report.Skipped)
	assert.Empty(t, report.Overlaps)
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.True(t, mr.Exists(AuditLockKey), "lock is kept for the cooldown")
	assert.Equal(t, time.Minute, mr.TTL(AuditLockKey))
}

func TestAuditScheduler_RunOnce_ReportsOverlaps(t *testing.T) {
	repo := &pairsRepo{pairs: []domain.OverlapPair{{
		FirstID:  "a",
		SecondID: "b",
		Overlap: domain.DateRange{
			Start: domain.MustParseDate("2026-10-20"),
			End:   domain.MustParseDate("2026-10-21"),
		},
	}}}
	s, _, logs := setup(t, repo)

	report := s.RunOnce(context.Background())

	require.Len(t, report.Overlaps, 1)
	found := logs.FilterMessage("overlapping reservations detected")
	require.Equal(t, 1, found.Len())
	entry := found.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "a", entry.ContextMap()["first_id"])
	assert.Equal(t, "2026-10-20", entry.ContextMap()["overlap_start"])
}

func TestAuditScheduler_RunOnce_SkipsDuringCooldown(t *testing.T) {
	repo := &pairsRepo{}
	s, mr, _ := setup(t, repo)

	s.RunOnce(context.Background())
	report := s.RunOnce(context.Background())

	assert.True(t, report.Skipped)
	assert.Equal(t, int32(1), repo.calls.Load())

	mr.FastForward(2 * time.Minute)

	report = s.RunOnce(context.Background())
	assert.False(t, report.Skipped)
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestAuditScheduler_RunOnce_ErrorReleasesLock(t *testing.T) {
	repo := &pairsRepo{err: errors.New("statement timeout")}
	s, mr, _ := setup(t, repo)

	report := s.RunOnce(context.Background())

	assert.Error(t, report.Err)
	assert.False(t, mr.Exists(AuditLockKey), "released so another instance can retry")
}

func TestAuditScheduler_StartStop(t *testing.T) {
	repo := &pairsRepo{}
	s, _, _ := setup(t, repo)

	s.Start(true)
	assert.Eventually(t, func() bool { return repo.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	s.Stop()

	s2, _, _ := setup(t, &pairsRepo{})
	s2.Stop() // never started

	var disabled *AuditScheduler
	disabled.Stop()
}
