package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"reservation-service/internal/transport/httpserver/dto"
)

// idleLimiterTTL is how long an unused per-client limiter is kept.
const idleLimiterTTL = 10 * time.Minute

// RateLimitConfig holds per-client limits.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds one token bucket per client IP.
type rateLimiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiterStore(cfg RateLimitConfig) *rateLimiterStore {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &rateLimiterStore{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(time.Minute / time.Duration(rpm)),
		burst:    burst,
		now:      time.Now,
	}
}

// allow reports whether ip may make a request now, creating its limiter on first use.
func (s *rateLimiterStore) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	cl, ok := s.limiters[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[ip] = cl
	}
	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

// sweep drops idle limiters at most once per idleLimiterTTL. Caller holds mu.
func (s *rateLimiterStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < idleLimiterTTL {
		return
	}
	s.lastSweep = now

	for ip, cl := range s.limiters {
		if now.Sub(cl.lastSeen) > idleLimiterTTL {
			delete(s.limiters, ip)
		}
	}
}

// RateLimit limits requests per client IP with a token bucket.
func RateLimit(cfg RateLimitConfig, logger *zap.Logger) fiber.Handler {
	store := newRateLimiterStore(cfg)

	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if !store.allow(ip) {
			logger.Warn("rate limit exceeded", zap.String("ip", ip))

			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: "Rate limit exceeded. Try again later.",
				Code:  dto.CodeRateLimited,
			})
		}

		return c.Next()
	}
}
