package middleware

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"reservation-service/internal/domain"
	"reservation-service/internal/transport/httpserver/dto"
)

// Idempotency header names.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// inFlightTTL bounds how long a crashed request can block its key.
const inFlightTTL = 30 * time.Second

// IdempotencyConfig configures response replay.
type IdempotencyConfig struct {
	// TTL is how long a successful response is replayed.
	TTL time.Duration
}

// cachedResponse is the stored form of a successful response.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the stored 2xx response of a request carrying an
// Idempotency-Key that was already served, so a retried POST does not book twice.
// A second request arriving while the first is still running gets 409.
// Cache failures are logged and the request proceeds without replay.
func Idempotency(cache domain.Cache, cfg IdempotencyConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" {
			return c.Next()
		}

		ctx := c.UserContext()
		storeKey := c.Method() + ":" + c.Path() + ":" + key

		data, err := cache.Get(ctx, storeKey)
		if err != nil {
			logger.Warn("idempotency lookup failed", zap.Error(err))
			return c.Next()
		}
		if data != nil {
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				c.Set(HeaderReplayed, "true")
				c.Set(fiber.HeaderContentType, cached.ContentType)
				return c.Status(cached.Status).Send(cached.Body)
			}
			logger.Warn("discarding unreadable idempotency record", zap.String("key", key))
		}

		pendingKey := storeKey + ":pending"
		reserved, err := cache.SetNX(ctx, pendingKey, []byte("1"), inFlightTTL)
		if err != nil {
			logger.Warn("idempotency reservation failed", zap.Error(err))
			return c.Next()
		}
		if !reserved {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: "A request with this Idempotency-Key is already in progress.",
				Code:  dto.CodeIdempotencyPending,
			})
		}
		defer func() {
			if err := cache.Delete(ctx, pendingKey); err != nil {
				logger.Warn("idempotency release failed", zap.Error(err))
			}
		}()

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}

		record, err := json.Marshal(cachedResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err != nil {
			return nil
		}
		if err := cache.Set(ctx, storeKey, record, cfg.TTL); err != nil {
			logger.Warn("idempotency store failed", zap.Error(err))
		}

		return nil
	}
}
