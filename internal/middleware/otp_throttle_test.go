package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func TestOTPThrottle(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	app := fiber.New()
	app.Post("/otp", OTPThrottle(cache, 2, "233"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	request := func(phone string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/otp", strings.NewReader(`{"phone":"`+phone+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return resp.StatusCode
	}

	// different spellings of one number share a counter
	if got := request("0503088600"); got != fiber.StatusAccepted {
		t.Fatalf("first: %d", got)
	}
	if got := request("233503088600"); got != fiber.StatusAccepted {
		t.Fatalf("second: %d", got)
	}
	if got := request("503088600"); got != fiber.StatusTooManyRequests {
		t.Fatalf("third: expected 429, got %d", got)
	}
	if got := request("0244000000"); got != fiber.StatusAccepted {
		t.Fatalf("other number should not be throttled: %d", got)
	}

	mr.FastForward(61 * time.Second)
	if got := request("0503088600"); got != fiber.StatusAccepted {
		t.Fatalf("after window: %d", got)
	}
}
