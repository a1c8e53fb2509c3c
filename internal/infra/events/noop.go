// Package events holds reservation event publishers. Delivery is best effort:
// a failed publish never rolls back a committed reservation change.
package events

import (
	"context"

	"go.uber.org/zap"

	"reservation-service/internal/domain"
)

// NoopPublisher drops every event. It is used when no events driver is set.
type NoopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher creates a publisher that only logs at debug level.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

// Publish implements domain.EventPublisher.
func (p *NoopPublisher) Publish(_ context.Context, event domain.ReservationEvent) error {
	p.logger.Debug("event dropped",
		zap.String("type", string(event.Type)),
		zap.String("reservation_id", event.ReservationID),
	)

	return nil
}

// Close implements domain.EventPublisher.
func (p *NoopPublisher) Close() error {
	return nil
}
