// Package service provides application use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservation-service/internal/domain"
)

// ConflictDetector answers overlap questions against the reservation store.
// Every call runs under its own store timeout.
type ConflictDetector struct {
	repo    domain.ReservationRepository
	timeout time.Duration
}

// NewConflictDetector creates a ConflictDetector. A zero timeout disables the bound.
func NewConflictDetector(repo domain.ReservationRepository, timeout time.Duration) *ConflictDetector {
	return &ConflictDetector{repo: repo, timeout: timeout}
}

// HasOverlap reports whether a reservation other than excludeID shares a day with [start, end].
func (d *ConflictDetector) HasOverlap(ctx context.Context, excludeID string, start, end domain.Date) (bool, error) {
	return withStoreTimeout(ctx, d.timeout, func(ctx context.Context) (bool, error) {
		return d.repo.HasOverlap(ctx, excludeID, start, end)
	})
}

// ReservedDates returns the booked days of [start, end].
func (d *ConflictDetector) ReservedDates(ctx context.Context, start, end domain.Date) (map[domain.Date]struct{}, error) {
	return withStoreTimeout(ctx, d.timeout, func(ctx context.Context) (map[domain.Date]struct{}, error) {
		return d.repo.ReservedDates(ctx, start, end)
	})
}

// withStoreTimeout bounds one store call. A deadline hit inside the call is
// reported as domain.ErrStoreTimeout; caller cancellation passes through unchanged.
func withStoreTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	v, err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrStoreTimeout) {
		err = fmt.Errorf("%w: %w", domain.ErrStoreTimeout, err)
	}

	return v, err
}

// execWithStoreTimeout is withStoreTimeout for calls without a result.
func execWithStoreTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	_, err := withStoreTimeout(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})

	return err
}
