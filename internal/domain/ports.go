package domain

import (
	"context"
	"time"
)

// ReservationRepository defines the interface for reservation persistence.
// Implementations: internal/infra/postgres/reservation_repository.go
type ReservationRepository interface {
	// Insert stores a new reservation and returns its generated ID.
	Insert(ctx context.Context, r *Reservation) (string, error)

	// Update rewrites the dates of an existing reservation.
	// Returns ErrNotFound when no row was affected.
	Update(ctx context.Context, r *Reservation) error

	// Delete removes a reservation. Returns ErrNotFound when no row was affected.
	Delete(ctx context.Context, id string) error

	// GetByID returns nil, nil when the reservation does not exist.
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// HasOverlap reports whether a reservation other than excludeID shares
	// at least one day with [start, end]. excludeID may be empty.
	HasOverlap(ctx context.Context, excludeID string, start, end Date) (bool, error)

	// ReservedDates returns every day of [start, end] covered by some reservation.
	ReservedDates(ctx context.Context, start, end Date) (map[Date]struct{}, error)

	// FindOverlappingPairs lists persisted reservations that overlap each other.
	FindOverlappingPairs(ctx context.Context) ([]OverlapPair, error)
}

// CustomerRepository defines the interface for customer persistence.
// Implementations: internal/infra/postgres/customer_repository.go
type CustomerRepository interface {
	// UpsertByEmail inserts the customer or updates the full name of the
	// existing one with the same email, returning the customer ID.
	UpsertByEmail(ctx context.Context, email, fullName string) (string, error)

	// GetByID returns nil, nil when the customer does not exist.
	GetByID(ctx context.Context, id string) (*Customer, error)

	// Update rewrites email and full name of an existing customer.
	Update(ctx context.Context, c *Customer) error
}

// EventPublisher delivers committed reservation changes to downstream consumers.
// Implementations: internal/infra/events/...
type EventPublisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
	Close() error
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores a value only if the key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}
