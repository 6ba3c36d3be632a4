package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/middleware"
)

func TestRateLimitPerCaller(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User") == "7" {
			c.Locals(middleware.LocalUserID, uint(7))
		}
		return c.Next()
	})
	app.Post("/login", middleware.RateLimit("auth", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusNoContent, send(""))
	require.Equal(t, fiber.StatusNoContent, send(""))
	require.Equal(t, fiber.StatusTooManyRequests, send(""))

	// the authenticated caller has its own bucket even from the same address
	require.Equal(t, fiber.StatusNoContent, send("7"))
}
