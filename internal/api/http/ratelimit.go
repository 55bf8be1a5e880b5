package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/listing-service/internal/observability"
	apperrors "github.com/spec-kit/listing-service/pkg/util/errorutil"
)

// AttemptCounter counts hits on a key within a fixed window that starts with the first hit.
type AttemptCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit limits requests per client IP and route. Counter failures let the request through.
func RateLimit(counter AttemptCounter, limit int, window time.Duration, logger *zap.Logger) fiber.Handler {
	if counter == nil || limit <= 0 || window <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		count, err := counter.Incr(c.UserContext(), rateLimitKey(c), window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}

		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > limit {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return apperrors.NewRateLimited("too many attempts, try again later")
		}
		return c.Next()
	}
}

func rateLimitKey(c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		ip = "unknown"
	}
	return "rl:path:" + observability.RouteKey(c) + ":ip:" + ip
}
