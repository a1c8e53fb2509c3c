package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logger returns a middleware that writes one access log entry per request.
// Writes are logged at info so every booking change leaves a trace; reads
// stay at debug. Failures are raised to warn or error by status class.
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("route", c.Route().Path),
			zap.Int("status", status),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.IP()),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, zap.String("request_id", rid))
		}
		if id := c.Params("id"); id != "" {
			fields = append(fields, zap.String("reservation_id", id))
		}
		if len(c.Response().Header.Peek(HeaderReplayed)) > 0 {
			fields = append(fields, zap.Bool("replayed", true))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request rejected", fields...)
		case c.Method() != fiber.MethodGet:
			logger.Info("request completed", fields...)
		default:
			logger.Debug("request completed", fields...)
		}

		return err
	}
}
