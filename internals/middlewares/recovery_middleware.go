package middlewares

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"feeledger_backend/internals/helpers/reporting"
)

// RecoveryMiddleware menangkap panic, lapor ke rollbar, lalu 500 lewat ErrorHandler app.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			reporting.Error("panic", fmt.Errorf("%v", e), map[string]interface{}{
				"method":     c.Method(),
				"path":       c.Path(),
				"request_id": c.Locals("reqid"),
			})
		},
	})
}
