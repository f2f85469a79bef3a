// file: internals/features/finance/fee_ledgers/route/fee_ledger_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ledgerController "feeledger_backend/internals/features/finance/fee_ledgers/controller"
)

/*
Admin: kelola ledger, pembayaran manual, recompute denda.
Diproteksi AuthJWT + RequireRoles di group induk.
*/
func FeeLedgerAdminRoutes(admin fiber.Router, db *gorm.DB) {
	h := ledgerController.NewFeeLedgerController(db)

	grp := admin.Group("/fee-ledgers")
	grp.Get("/", h.List)
	grp.Post("/", h.Create)
	grp.Post("/recompute-overdue", h.RecomputeOverdue)
	grp.Get("/:id", h.GetByID)
	grp.Get("/:id/payments", h.ListPayments)
	grp.Post("/:id/payments", h.ProcessPayment)
	grp.Post("/:id/apply-penalty", h.ApplyPenalty)
}

// Student: hanya ledger milik sendiri (student_ref dari token).
func FeeLedgerUserRoutes(user fiber.Router, db *gorm.DB) {
	h := ledgerController.NewFeeLedgerController(db)

	grp := user.Group("/fee-ledgers")
	grp.Get("/my", h.ListMine)
	grp.Get("/:id", h.GetMine)
}
