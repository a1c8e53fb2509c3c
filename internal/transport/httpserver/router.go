// Package httpserver provides HTTP server and routing.
package httpserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"reservation-service/internal/domain"
	"reservation-service/internal/transport/httpserver/dto"
	"reservation-service/internal/transport/httpserver/handler"
	"reservation-service/internal/transport/httpserver/middleware"
	"reservation-service/internal/validator"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port      int
	BodyLimit int
	// ReadinessTimeout bounds the /readyz dependency checks.
	ReadinessTimeout time.Duration
	// RateLimit is disabled when nil.
	RateLimit *middleware.RateLimitConfig
	// IdempotencyTTL is how long POST responses are replayed. Zero disables replay.
	IdempotencyTTL time.Duration
}

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	Bookings     handler.BookingService
	Availability handler.AvailabilityService
	// Cache backs Idempotency-Key replay. Replay is off when nil.
	Cache     domain.Cache
	Readiness []middleware.ReadinessCheck
	Validator *validator.Validator
}

// Server wraps Fiber app with handlers.
type Server struct {
	App    *fiber.App
	Logger *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg ServerConfig, deps Dependencies, logger *zap.Logger) *Server {
	if cfg.ReadinessTimeout <= 0 {
		cfg.ReadinessTimeout = 2 * time.Second
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}

	app := fiber.New(fiber.Config{
		AppName:      "reservation-service",
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler(logger),
	})

	// Health check middleware MUST be registered BEFORE other middleware
	// so probes bypass rate limiting.
	app.Use(middleware.NewHealthCheck(cfg.ReadinessTimeout, deps.Readiness...))

	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))
	app.Use(middleware.Logger(logger))
	if cfg.RateLimit != nil {
		app.Use(middleware.RateLimit(*cfg.RateLimit, logger))
	}

	bookingHandler := handler.NewBookingHandler(deps.Bookings, deps.Availability, deps.Validator, logger)

	var idempotency []fiber.Handler
	if deps.Cache != nil && cfg.IdempotencyTTL > 0 {
		idempotency = append(idempotency,
			middleware.Idempotency(deps.Cache, middleware.IdempotencyConfig{TTL: cfg.IdempotencyTTL}, logger))
	}

	registerRoutes(app, bookingHandler, idempotency)

	return &Server{
		App:    app,
		Logger: logger,
	}
}

// registerRoutes sets up all API routes.
func registerRoutes(app *fiber.App, h *handler.BookingHandler, idempotency []fiber.Handler) {
	// Health checks are handled by middleware (/livez, /readyz)

	v1 := app.Group("/api/v1")

	booking := v1.Group("/booking")
	booking.Get("/schedule", h.Schedule)
	booking.Post("/", append(idempotency, h.Create)...)
	booking.Get("/:id", h.Get)
	booking.Put("/:id", h.Update)
	booking.Delete("/:id", h.Delete)
}

// errorHandler returns a custom error handler that logs based on HTTP status code.
// 404s are logged at DEBUG level (expected client behavior), 4xx at WARN, 5xx at ERROR.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		switch {
		case code == fiber.StatusNotFound:
			logger.Debug("resource not found",
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
		case code >= 500:
			logger.Error("server error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		default:
			logger.Warn("client error",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(dto.ErrorResponse{
			Error: message,
			Code:  errorCode(code),
		})
	}
}

func errorCode(status int) string {
	switch {
	case status == fiber.StatusNotFound:
		return dto.CodeNotFound
	case status == fiber.StatusTooManyRequests:
		return dto.CodeRateLimited
	case status == fiber.StatusServiceUnavailable:
		return dto.CodeUnavailable
	case status >= 500:
		return dto.CodeInternal
	default:
		return dto.CodeInvalidParams
	}
}

// Start starts the HTTP server.
func (s *Server) Start(port int) error {
	s.Logger.Info("starting HTTP server", zap.Int("port", port))

	return s.App.Listen(fmt.Sprintf(":%d", port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.Logger.Info("shutting down HTTP server")

	return s.App.Shutdown()
}
