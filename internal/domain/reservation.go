package domain

import (
	"strings"
	"time"
)

// Reservation is a committed booking of the resource for an inclusive range of days.
type Reservation struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	ArrivalDate   Date      `json:"arrival_date"`
	DepartureDate Date      `json:"departure_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Range returns the reservation's inclusive day span.
func (r *Reservation) Range() DateRange {
	return DateRange{Start: r.ArrivalDate, End: r.DepartureDate}
}

// Customer is the guest a reservation belongs to. Email is the business key.
type Customer struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// NormalizeEmail lowercases and trims an address so lookups by email are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ReservationRequest is the caller payload of create and update.
type ReservationRequest struct {
	Email         string
	FullName      string
	ArrivalDate   Date
	DepartureDate Date
}

// Range returns the requested inclusive day span.
func (r ReservationRequest) Range() DateRange {
	return DateRange{Start: r.ArrivalDate, End: r.DepartureDate}
}

// OverlapPair names two persisted reservations that share at least one day.
// It only exists when the no-overlap invariant has been broken.
type OverlapPair struct {
	FirstID  string
	SecondID string
	Overlap  DateRange
}
