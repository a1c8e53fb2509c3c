package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"reservation-service/internal/transport/httpserver/dto"
)

// Recover returns a middleware that turns a handler panic into a 500 response.
// Deferred lease releases in the services have already run by then.
func Recover(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("error", r),
					zap.String("stack", string(debug.Stack())),
					zap.String("path", c.Path()),
					zap.Any("request_id", c.Locals("requestid")),
				)

				err = c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
					Error: "internal server error",
					Code:  dto.CodeInternal,
				})
			}
		}()

		return c.Next()
	}
}
