package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reservation-service/internal/domain"
)

// AvailabilityService lists free days of the resource.
type AvailabilityService struct {
	conflicts *ConflictDetector
	clock     domain.Clock
	logger    *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(conflicts *ConflictDetector, clock domain.Clock, logger *zap.Logger) *AvailabilityService {
	return &AvailabilityService{
		conflicts: conflicts,
		clock:     clock,
		logger:    logger,
	}
}

// ListAvailableDates returns the unbooked days of [start, end] in ascending order.
// A nil start means today; a nil end means one month after start.
//
// A store timeout fails the query with domain.ErrStoreTimeout. Returning an
// empty reserved set instead would advertise booked days as free.
func (s *AvailabilityService) ListAvailableDates(ctx context.Context, start, end *domain.Date) ([]domain.Date, error) {
	today := s.clock.Today()

	from := today
	if start != nil {
		from = *start
	}
	to := from.AddMonths(domain.DefaultQueryMonths)
	if end != nil {
		to = *end
	}

	if err := domain.ValidateQuery(from, to, today).Err(); err != nil {
		return nil, err
	}

	reserved, err := s.conflicts.ReservedDates(ctx, from, to)
	if err != nil {
		s.logger.Error("listing reserved dates failed",
			zap.Stringer("start", from),
			zap.Stringer("end", to),
			zap.Error(err),
		)
		return nil, fmt.Errorf("listing available dates: %w", err)
	}

	days, err := domain.ContinuousDates(from, to)
	if err != nil {
		return nil, err
	}

	available := make([]domain.Date, 0, len(days))
	for _, d := range days {
		if _, booked := reserved[d]; !booked {
			available = append(available, d)
		}
	}

	s.logger.Debug("availability computed",
		zap.Stringer("start", from),
		zap.Stringer("end", to),
		zap.Int("available", len(available)),
		zap.Int("reserved", len(reserved)),
	)

	return available, nil
}
