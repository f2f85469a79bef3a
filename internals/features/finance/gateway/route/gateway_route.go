// file: internals/features/finance/gateway/route/gateway_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	gatewayController "feeledger_backend/internals/features/finance/gateway/controller"
)

// Public: callback dari payment gateway (autentikasi via checksum, bukan JWT).
func GatewayPublicRoutes(r fiber.Router, db *gorm.DB, o gatewayController.Options) {
	h := gatewayController.NewGatewayController(db, o)
	r.Post("/gateway/callback", h.Callback)
}

func GatewayUserRoutes(user fiber.Router, db *gorm.DB, o gatewayController.Options) {
	h := gatewayController.NewGatewayController(db, o)
	user.Post("/gateway/initiate", h.Initiate)
}

func GatewayAdminRoutes(admin fiber.Router, db *gorm.DB, o gatewayController.Options) {
	h := gatewayController.NewGatewayController(db, o)
	admin.Get("/gateway-events", h.ListEvents)
}
