// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"reservation-service/internal/domain"
	"reservation-service/internal/transport/httpserver/dto"
	"reservation-service/internal/validator"
)

// BookingService is the reservation use case surface the handler needs.
// Implemented by *service.BookingService.
type BookingService interface {
	CreateReservation(ctx context.Context, req domain.ReservationRequest) (string, error)
	UpdateReservation(ctx context.Context, id string, req domain.ReservationRequest) (string, error)
	DeleteReservation(ctx context.Context, id string) (string, error)
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
}

// AvailabilityService lists free days.
// Implemented by *service.AvailabilityService.
type AvailabilityService interface {
	ListAvailableDates(ctx context.Context, start, end *domain.Date) ([]domain.Date, error)
}

// BookingHandler handles booking-related HTTP requests.
type BookingHandler struct {
	bookings     BookingService
	availability AvailabilityService
	validator    *validator.Validator
	logger       *zap.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings BookingService, availability AvailabilityService, v *validator.Validator, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		bookings:     bookings,
		availability: availability,
		validator:    v,
		logger:       logger,
	}
}

// Schedule handles GET /api/v1/booking/schedule
func (h *BookingHandler) Schedule(c *fiber.Ctx) error {
	var q dto.ScheduleQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  dto.CodeInvalidParams,
		})
	}
	if err := h.validator.Validate(&q); err != nil {
		return validationFailed(c, err)
	}

	start, end, err := q.Bounds()
	if err != nil {
		return validationFailed(c, err)
	}

	days, err := h.availability.ListAvailableDates(c.UserContext(), start, end)
	if err != nil {
		return h.writeError(c, "", err)
	}

	return c.JSON(dto.FromDates(days))
}

// Create handles POST /api/v1/booking
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	req, ok, err := h.parseRequest(c)
	if !ok {
		return err
	}

	id, err := h.bookings.CreateReservation(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, "", err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.IDResponse{ID: id})
}

// Get handles GET /api/v1/booking/:id
func (h *BookingHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	res, err := h.bookings.GetReservation(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, id, err)
	}

	return c.JSON(dto.FromDomainReservation(res))
}

// Update handles PUT /api/v1/booking/:id
func (h *BookingHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	req, ok, err := h.parseRequest(c)
	if !ok {
		return err
	}

	updated, err := h.bookings.UpdateReservation(c.UserContext(), id, req)
	if err != nil {
		return h.writeError(c, id, err)
	}

	return c.JSON(dto.IDResponse{ID: updated})
}

// Delete handles DELETE /api/v1/booking/:id
func (h *BookingHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	deleted, err := h.bookings.DeleteReservation(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, id, err)
	}

	return c.JSON(dto.IDResponse{ID: deleted})
}

// parseRequest decodes and validates a reservation body. When ok is false
// the error response has been written and err is what the handler returns.
func (h *BookingHandler) parseRequest(c *fiber.Ctx) (domain.ReservationRequest, bool, error) {
	var body dto.ReservationRequest
	if err := c.BodyParser(&body); err != nil {
		return domain.ReservationRequest{}, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  dto.CodeInvalidBody,
		})
	}
	if err := h.validator.Validate(&body); err != nil {
		return domain.ReservationRequest{}, false, validationFailed(c, err)
	}

	req, err := body.ToDomain()
	if err != nil {
		return domain.ReservationRequest{}, false, validationFailed(c, err)
	}

	return req, true, nil
}

func validationFailed(c *fiber.Ctx, err error) error {
	var details []string
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details = fieldErrs.Messages()
	} else {
		details = []string{err.Error()}
	}

	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   "validation failed",
		Code:    dto.CodeValidation,
		Details: details,
	})
}

// writeError maps a service error to its HTTP status and client message.
func (h *BookingHandler) writeError(c *fiber.Ctx, id string, err error) error {
	var ve *domain.ValidationError

	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    dto.CodeValidation,
			Details: ve.Messages,
		})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: domain.MsgConflict,
			Code:  dto.CodeConflict,
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: domain.NotFoundMessage(id),
			Code:  dto.CodeNotFound,
		})
	case errors.Is(err, domain.ErrStoreTimeout):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: "service temporarily unavailable",
			Code:  dto.CodeUnavailable,
		})
	case errors.Is(err, domain.ErrPersistence):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: domain.MsgPersistence,
			Code:  dto.CodePersistence,
		})
	case errors.Is(err, domain.ErrDeletion):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: domain.MsgDeletion,
			Code:  dto.CodeDeletion,
		})
	default:
		h.logger.Error("unexpected service error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "internal server error",
			Code:  dto.CodeInternal,
		})
	}
}
