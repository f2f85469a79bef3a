// file: internals/route/details/finance_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	LedgerRoute "feeledger_backend/internals/features/finance/fee_ledgers/route"
	gatewayController "feeledger_backend/internals/features/finance/gateway/controller"
	GatewayRoute "feeledger_backend/internals/features/finance/gateway/route"
	PenaltyRoute "feeledger_backend/internals/features/finance/penalties/route"
	"feeledger_backend/internals/middlewares"
)

func FinancePublicRoutes(r fiber.Router, db *gorm.DB, gw gatewayController.Options) {
	cb := r.Group("/", middlewares.CallbackRateLimiter())
	GatewayRoute.GatewayPublicRoutes(cb, db, gw)
}

func FinanceUserRoutes(r fiber.Router, db *gorm.DB, gw gatewayController.Options) {
	LedgerRoute.FeeLedgerUserRoutes(r, db)
	GatewayRoute.GatewayUserRoutes(r, db, gw)
}

func FinanceAdminRoutes(r fiber.Router, db *gorm.DB, gw gatewayController.Options) {
	PenaltyRoute.PenaltyConfigAdminRoutes(r, db)
	LedgerRoute.FeeLedgerAdminRoutes(r, db)
	GatewayRoute.GatewayAdminRoutes(r, db, gw)
}
