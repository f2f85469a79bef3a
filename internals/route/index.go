// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"feeledger_backend/internals/configs"
	"feeledger_backend/internals/constants"
	gatewayController "feeledger_backend/internals/features/finance/gateway/controller"
	authMiddleware "feeledger_backend/internals/middlewares/auth"
	routeDetails "feeledger_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	startTime = time.Now()

	BaseRoutes(app, db)

	gw := gatewayController.Options{
		Secret:            configs.GatewaySecret,
		MerchantID:        configs.GatewayMerchantID,
		Provider:          configs.GatewayProvider,
		BaseURL:           configs.GatewayBaseURL,
		MidtransServerKey: configs.MidtransServerKey,
		MidtransUseProd:   configs.MidtransUseProd,
	}

	// ===================== GROUPS =====================

	// PUBLIC → tanpa JWT (callback gateway diverifikasi checksum)
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")

	// PRIVATE (STUDENT)
	log.Println("[INFO] Setting up PRIVATE (student) group...")
	private := app.Group("/api/u", authMiddleware.AuthJWT(configs.JWTSecret))

	// ADMIN (finance)
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(configs.JWTSecret),
		authMiddleware.RequireRoles(constants.FinanceStaff...),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, db, gw)
	routeDetails.FinanceUserRoutes(private, db, gw)
	routeDetails.FinanceAdminRoutes(admin, db, gw)
}
