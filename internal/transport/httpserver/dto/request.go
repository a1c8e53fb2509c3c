// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import "reservation-service/internal/domain"

// ReservationRequest is the body of POST /booking and PUT /booking/:id.
type ReservationRequest struct {
	FullName      string `json:"fullName" validate:"required,max=255"`
	Email         string `json:"email" validate:"required,email,max=255"`
	ArrivalDate   string `json:"arrivalDate" validate:"required,isodate"`
	DepartureDate string `json:"departureDate" validate:"required,isodate"`
}

// ToDomain converts a validated request. Dates must already have passed
// the isodate check; a parse error here means validation was skipped.
func (r *ReservationRequest) ToDomain() (domain.ReservationRequest, error) {
	arrival, err := domain.ParseDate(r.ArrivalDate)
	if err != nil {
		return domain.ReservationRequest{}, err
	}
	departure, err := domain.ParseDate(r.DepartureDate)
	if err != nil {
		return domain.ReservationRequest{}, err
	}

	return domain.ReservationRequest{
		Email:         r.Email,
		FullName:      r.FullName,
		ArrivalDate:   arrival,
		DepartureDate: departure,
	}, nil
}

// ScheduleQuery holds the query parameters of GET /booking/schedule.
// Both bounds are optional.
type ScheduleQuery struct {
	StartDate string `query:"startDate" validate:"omitempty,isodate"`
	EndDate   string `query:"endDate" validate:"omitempty,isodate"`
}

// Bounds returns the parsed bounds, nil for the ones not given.
func (q *ScheduleQuery) Bounds() (start, end *domain.Date, err error) {
	if start, err = optionalDate(q.StartDate); err != nil {
		return nil, nil, err
	}
	if end, err = optionalDate(q.EndDate); err != nil {
		return nil, nil, err
	}

	return start, end, nil
}

func optionalDate(s string) (*domain.Date, error) {
	if s == "" {
		return nil, nil
	}

	d, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}

	return &d, nil
}
