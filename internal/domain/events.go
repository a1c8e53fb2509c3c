package domain

import "time"

// EventType identifies what happened to a reservation.
type EventType string

const (
	EventReservationCreated EventType = "reservation.created"
	EventReservationUpdated EventType = "reservation.updated"
	EventReservationDeleted EventType = "reservation.deleted"
)

// ReservationEvent is published after a reservation change is committed.
type ReservationEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	Email         string    `json:"email,omitempty"`
	ArrivalDate   Date      `json:"arrival_date,omitzero"`
	DepartureDate Date      `json:"departure_date,omitzero"`
	OccurredAt    time.Time `json:"occurred_at"`
}
