package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	penaltyController "feeledger_backend/internals/features/finance/penalties/controller"
)

/*
Admin routes penalty config (CRUD + preview).
Diproteksi AuthJWT + RequireRoles di group induk.
*/
func PenaltyConfigAdminRoutes(admin fiber.Router, db *gorm.DB) {
	h := penaltyController.NewPenaltyConfigController(db)

	grp := admin.Group("/penalty-configs")
	grp.Get("/", h.List)
	grp.Post("/", h.Create)
	grp.Post("/preview", h.Preview)
	grp.Get("/active/:academic_year", h.GetActive)
	grp.Get("/:id", h.GetByID)
	grp.Patch("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
}
