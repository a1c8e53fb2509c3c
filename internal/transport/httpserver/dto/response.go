package dto

import (
	"time"

	"reservation-service/internal/domain"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidBody        = "INVALID_BODY"
	CodeInvalidParams      = "INVALID_PARAMS"
	CodeConflict           = "CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodePersistence        = "PERSISTENCE_ERROR"
	CodeDeletion           = "DELETION_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeIdempotencyPending = "IDEMPOTENCY_IN_PROGRESS"
	CodeInternal           = "INTERNAL_ERROR"
)

// IDResponse is returned by create, update and delete.
type IDResponse struct {
	ID string `json:"id"`
}

// DateResponse is one available day of the schedule.
type DateResponse struct {
	Date string `json:"date"`
}

// FromDates converts available days to the schedule response.
func FromDates(days []domain.Date) []DateResponse {
	out := make([]DateResponse, len(days))
	for i, d := range days {
		out[i] = DateResponse{Date: d.String()}
	}

	return out
}

// ReservationResponse represents a single reservation.
type ReservationResponse struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customerId"`
	ArrivalDate   string `json:"arrivalDate"`
	DepartureDate string `json:"departureDate"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// FromDomainReservation converts domain.Reservation to ReservationResponse.
func FromDomainReservation(r *domain.Reservation) ReservationResponse {
	resp := ReservationResponse{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		ArrivalDate:   r.ArrivalDate.String(),
		DepartureDate: r.DepartureDate.String(),
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	if !r.UpdatedAt.IsZero() {
		resp.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}

	return resp
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
