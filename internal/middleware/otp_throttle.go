package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/digishe/digishe/internal/phone"
)

const otpThrottlePrefix = "rl:otp:"

// OTPThrottle limits code requests per canonical phone (or client IP when the
// phone cannot be read) using a Redis counter per minute. Without Redis it is
// a no-op; cache errors fail open.
func OTPThrottle(cache *redis.Client, maxPerMin int, countryPrefix string) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 3
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Phone string `json:"phone"`
		}
		_ = c.BodyParser(&req)
		subject, err := phone.Normalize(strings.TrimSpace(req.Phone), countryPrefix)
		if err != nil {
			subject = c.IP()
		}
		key := otpThrottlePrefix + subject
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, "60")
			return fiber.NewError(http.StatusTooManyRequests, "too many code requests, try again in a minute")
		}
		return c.Next()
	}
}
