package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reservation-service/internal/domain"
)

// ReservationRepository implements domain.ReservationRepository using PostgreSQL.
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new PostgreSQL reservation repository.
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Insert stores a new reservation. An empty ID is filled with a new UUID.
func (r *ReservationRepository) Insert(ctx context.Context, res *domain.Reservation) (string, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}

	model := ReservationFromDomain(res)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return "", fmt.Errorf("inserting reservation: %w", translateError(err))
	}

	res.CreatedAt = model.CreatedAt
	res.UpdatedAt = model.UpdatedAt

	return model.ID, nil
}

// Update rewrites the reservation's dates.
func (r *ReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ?", res.ID).
		Updates(map[string]interface{}{
			"arrival_date":   res.ArrivalDate.String(),
			"departure_date": res.DepartureDate.String(),
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("updating reservation: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("updating reservation %s: %w", res.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a reservation by ID.
func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ReservationModel{})
	if result.Error != nil {
		return fmt.Errorf("deleting reservation: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("deleting reservation %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetByID retrieves a reservation by ID, or nil when absent.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		// Not a UUID, so it cannot exist.
		return nil, nil
	}

	var model ReservationModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting reservation by id: %w", translateError(err))
	}

	return model.ToDomain(), nil
}

// HasOverlap reports whether another reservation shares a day with [start, end].
// Two inclusive ranges overlap when each starts no later than the other ends.
func (r *ReservationRepository) HasOverlap(ctx context.Context, excludeID string, start, end domain.Date) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE arrival_date <= ?::date
			  AND departure_date >= ?::date
			  AND (? = '' OR id::text <> ?)
		)
	`, end.String(), start.String(), excludeID, excludeID).Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("checking overlap: %w", translateError(err))
	}

	return exists, nil
}

// ReservedDates returns every day of [start, end] covered by some reservation.
func (r *ReservationRepository) ReservedDates(ctx context.Context, start, end domain.Date) (map[domain.Date]struct{}, error) {
	var models []ReservationModel
	err := r.db.WithContext(ctx).
		Select("arrival_date", "departure_date").
		Where("arrival_date <= ?::date AND departure_date >= ?::date", end.String(), start.String()).
		Order("arrival_date").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("listing reserved dates: %w", translateError(err))
	}

	window := domain.DateRange{Start: start, End: end}
	reserved := make(map[domain.Date]struct{})
	for i := range models {
		span, ok := models[i].ToDomain().Range().Clip(window)
		if !ok {
			continue
		}
		days, err := domain.ContinuousDates(span.Start, span.End)
		if err != nil {
			return nil, err
		}
		for _, d := range days {
			reserved[d] = struct{}{}
		}
	}

	return reserved, nil
}

// FindOverlappingPairs lists every pair of reservations sharing a day.
func (r *ReservationRepository) FindOverlappingPairs(ctx context.Context) ([]domain.OverlapPair, error) {
	var rows []overlapRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT a.id::text AS first_id,
		       b.id::text AS second_id,
		       GREATEST(a.arrival_date, b.arrival_date) AS overlap_start,
		       LEAST(a.departure_date, b.departure_date) AS overlap_end
		FROM reservations a
		JOIN reservations b
		  ON a.id < b.id
		 AND a.arrival_date <= b.departure_date
		 AND a.departure_date >= b.arrival_date
		ORDER BY overlap_start
	`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("finding overlapping reservations: %w", translateError(err))
	}

	pairs := make([]domain.OverlapPair, len(rows))
	for i, row := range rows {
		pairs[i] = domain.OverlapPair{
			FirstID:  row.FirstID,
			SecondID: row.SecondID,
			Overlap: domain.DateRange{
				Start: domain.DateOf(row.OverlapStart),
				End:   domain.DateOf(row.OverlapEnd),
			},
		}
	}

	return pairs, nil
}
