package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"feeledger_backend/internals/configs"
	helper "feeledger_backend/internals/helpers"
)

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        configs.Conf.GetInt("RATE_LIMIT_MAX"),
		Expiration: configs.Conf.GetDuration("RATE_LIMIT_WINDOW"),
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			// callback gateway punya limiter sendiri
			return c.Path() == "/api/public/gateway/callback"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, "❌ Terlalu banyak permintaan. Silakan coba lagi nanti.")
		},
	})
}

// Rate limiter untuk callback gateway (lebih longgar, retry gateway bisa beruntun)
func CallbackRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        configs.Conf.GetInt("RATE_LIMIT_MAX") * 5,
		Expiration: configs.Conf.GetDuration("RATE_LIMIT_WINDOW"),
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, "too many callbacks")
		},
	})
}
