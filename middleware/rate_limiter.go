package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rahulkarmakar28/code-sandbox/services"
)

// RateLimitConfig holds the fixed-window admission budget.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// DefaultRateLimitConfig allows 7 requests per client per 60s window.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Max: 7, Window: 60 * time.Second}
}

// RateLimiter gates requests per client IP using a fixed-window counter in
// Redis. The window resets on TTL expiry, so bursts straddling a window
// boundary can transiently exceed the budget. Broker failures fail closed:
// the request is rejected rather than admitted unmetered.
func RateLimiter(redisService *services.RedisService, cfg RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := services.RateLimitKeyPrefix + c.IP()

		count, ttl, err := redisService.IncrementRate(c.Context(), key, cfg.Window)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		}

		if count > int64(cfg.Max) {
			retryAfter := int(ttl.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", retryAfter),
			})
		}

		return c.Next()
	}
}
