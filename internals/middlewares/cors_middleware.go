// middlewares/cors.go

package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"feeledger_backend/internals/configs"
)

// CorsMiddleware: origin dari CORS_ALLOW_ORIGINS (comma-separated).
func CorsMiddleware() fiber.Handler {
	origins := configs.Conf.GetString("CORS_ALLOW_ORIGINS")
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Checksum",
		AllowCredentials: origins != "*",
	})
}
