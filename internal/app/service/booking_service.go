package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reservation-service/internal/domain"
	"reservation-service/pkg/locker"
)

const defaultStoreTimeout = 3 * time.Second

// RangeLocker runs fn while holding a lock on every name.
// Implemented by *locker.Coordinator.
type RangeLocker interface {
	WithLocks(ctx context.Context, names []string, fn func(ctx context.Context) error) error
}

// BookingService orchestrates reservation writes.
//
// Create and update follow the same sequence: validate the range, pre-check
// for conflicts, lock every covered date, re-check inside the locks, then
// persist. The pre-check only saves lock traffic; the re-check is what keeps
// two reservations from sharing a day. Delete takes no lock.
type BookingService struct {
	reservations domain.ReservationRepository
	customers    *CustomerService
	conflicts    *ConflictDetector
	locks        RangeLocker
	events       domain.EventPublisher
	clock        domain.Clock
	storeTimeout time.Duration
	logger       *zap.Logger
}

// BookingDeps groups the collaborators of BookingService.
type BookingDeps struct {
	Reservations domain.ReservationRepository
	Customers    *CustomerService
	Conflicts    *ConflictDetector
	Locks        RangeLocker
	Events       domain.EventPublisher
	Clock        domain.Clock
	StoreTimeout time.Duration
}

// NewBookingService creates a new BookingService.
func NewBookingService(deps BookingDeps, logger *zap.Logger) *BookingService {
	if deps.StoreTimeout <= 0 {
		deps.StoreTimeout = defaultStoreTimeout
	}

	return &BookingService{
		reservations: deps.Reservations,
		customers:    deps.Customers,
		conflicts:    deps.Conflicts,
		locks:        deps.Locks,
		events:       deps.Events,
		clock:        deps.Clock,
		storeTimeout: deps.StoreTimeout,
		logger:       logger,
	}
}

// CreateReservation books [ArrivalDate, DepartureDate] and returns the new reservation ID.
func (s *BookingService) CreateReservation(ctx context.Context, req domain.ReservationRequest) (string, error) {
	if err := s.validate(req); err != nil {
		return "", err
	}

	if err := s.ensureFree(ctx, "", req); err != nil {
		return "", err
	}

	keys, err := domain.LockKeys(req.ArrivalDate, req.DepartureDate)
	if err != nil {
		return "", err
	}

	var res *domain.Reservation
	err = s.locks.WithLocks(ctx, keys, func(ctx context.Context) error {
		if err := s.ensureFree(ctx, "", req); err != nil {
			return err
		}

		customerID, err := s.customers.Upsert(ctx, req.Email, req.FullName)
		if err != nil {
			return persistenceError(err)
		}

		res = &domain.Reservation{
			CustomerID:    customerID,
			ArrivalDate:   req.ArrivalDate,
			DepartureDate: req.DepartureDate,
		}
		id, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (string, error) {
			return s.reservations.Insert(ctx, res)
		})
		if err != nil {
			return persistenceError(err)
		}
		res.ID = id

		return nil
	})
	if err != nil {
		return "", s.fail("create", "", err)
	}

	s.logger.Info("reservation created",
		zap.String("reservation_id", res.ID),
		zap.Stringer("arrival", res.ArrivalDate),
		zap.Stringer("departure", res.DepartureDate),
	)
	s.publish(ctx, domain.EventReservationCreated, res, req.Email)

	return res.ID, nil
}

// UpdateReservation moves reservation id to a new range and refreshes its
// customer's contact details. It returns the reservation ID.
func (s *BookingService) UpdateReservation(ctx context.Context, id string, req domain.ReservationRequest) (string, error) {
	if err := s.validate(req); err != nil {
		return "", err
	}

	res, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.ensureFree(ctx, id, req); err != nil {
		return "", err
	}

	keys, err := domain.LockKeys(req.ArrivalDate, req.DepartureDate)
	if err != nil {
		return "", err
	}

	err = s.locks.WithLocks(ctx, keys, func(ctx context.Context) error {
		if err := s.ensureFree(ctx, id, req); err != nil {
			return err
		}

		if err := s.customers.UpdateContact(ctx, res.CustomerID, req.Email, req.FullName); err != nil {
			return persistenceError(err)
		}

		res.ArrivalDate = req.ArrivalDate
		res.DepartureDate = req.DepartureDate
		if err := execWithStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) error {
			return s.reservations.Update(ctx, res)
		}); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return err
			}
			return persistenceError(err)
		}

		return nil
	})
	if err != nil {
		return "", s.fail("update", id, err)
	}

	s.logger.Info("reservation updated",
		zap.String("reservation_id", id),
		zap.Stringer("arrival", res.ArrivalDate),
		zap.Stringer("departure", res.DepartureDate),
	)
	s.publish(ctx, domain.EventReservationUpdated, res, req.Email)

	return id, nil
}

// DeleteReservation removes reservation id and returns it.
func (s *BookingService) DeleteReservation(ctx context.Context, id string) (string, error) {
	res, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	err = execWithStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) error {
		return s.reservations.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}

		s.logger.Error("reservation delete failed",
			zap.String("reservation_id", id),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", domain.ErrDeletion, err)
	}

	s.logger.Info("reservation deleted", zap.String("reservation_id", id))
	s.publish(ctx, domain.EventReservationDeleted, &domain.Reservation{ID: res.ID}, "")

	return id, nil
}

// GetReservation returns reservation id or an error wrapping domain.ErrNotFound.
func (s *BookingService) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.load(ctx, id)
}

func (s *BookingService) validate(req domain.ReservationRequest) error {
	if err := domain.ValidateRequest(req.ArrivalDate, req.DepartureDate, s.clock.Today()).Err(); err != nil {
		s.logger.Debug("reservation request rejected",
			zap.Stringer("arrival", req.ArrivalDate),
			zap.Stringer("departure", req.DepartureDate),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func (s *BookingService) load(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := withStoreTimeout(ctx, s.storeTimeout, func(ctx context.Context) (*domain.Reservation, error) {
		return s.reservations.GetByID(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("loading reservation %s: %w", id, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	return res, nil
}

// ensureFree fails with domain.ErrConflict when another reservation overlaps req.
func (s *BookingService) ensureFree(ctx context.Context, excludeID string, req domain.ReservationRequest) error {
	overlap, err := s.conflicts.HasOverlap(ctx, excludeID, req.ArrivalDate, req.DepartureDate)
	if err != nil {
		return fmt.Errorf("checking conflicts: %w", err)
	}
	if overlap {
		return fmt.Errorf("%w: %s..%s", domain.ErrConflict, req.ArrivalDate, req.DepartureDate)
	}

	return nil
}

// fail classifies an error from the locked section. Lock contention is
// reported as a conflict, the same as an overlapping reservation.
func (s *BookingService) fail(op, id string, err error) error {
	if errors.Is(err, locker.ErrLockAcquire) {
		err = fmt.Errorf("%w: %w", domain.ErrConflict, err)
	}

	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if id != "" {
		fields = append(fields, zap.String("reservation_id", id))
	}

	switch {
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotFound):
		s.logger.Warn("reservation rejected", fields...)
	default:
		s.logger.Error("reservation write failed", fields...)
	}

	return err
}

// persistenceError wraps a store fault raised after every check passed.
// The exclusion constraint backstop still surfaces as a conflict.
func persistenceError(err error) error {
	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrStoreTimeout) {
		return err
	}

	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

// publish emits a reservation event after commit. Failures are logged only.
func (s *BookingService) publish(ctx context.Context, typ domain.EventType, res *domain.Reservation, email string) {
	if s.events == nil {
		return
	}

	event := domain.ReservationEvent{
		ID:            uuid.NewString(),
		Type:          typ,
		ReservationID: res.ID,
		Email:         domain.NormalizeEmail(email),
		ArrivalDate:   res.ArrivalDate,
		DepartureDate: res.DepartureDate,
		OccurredAt:    time.Now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	if err := s.events.Publish(pubCtx, event); err != nil {
		s.logger.Warn("reservation event not published",
			zap.String("event_id", event.ID),
			zap.String("type", string(typ)),
			zap.String("reservation_id", res.ID),
			zap.Error(err),
		)
	}
}
