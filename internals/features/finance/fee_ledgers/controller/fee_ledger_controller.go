// file: internals/features/finance/fee_ledgers/controller/fee_ledger_controller.go
package controller

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"feeledger_backend/internals/features/finance/fee_ledgers/dto"
	"feeledger_backend/internals/features/finance/fee_ledgers/scheduler"
	"feeledger_backend/internals/features/finance/fee_ledgers/service"
	penaltyService "feeledger_backend/internals/features/finance/penalties/service"
	helper "feeledger_backend/internals/helpers"
)

type FeeLedgerController struct {
	DB       *gorm.DB
	Ledgers  *service.LedgerService
	Payments *service.PaymentProcessor
	Now      func() time.Time

	RecomputeTimeout time.Duration
}

func NewFeeLedgerController(db *gorm.DB) *FeeLedgerController {
	return &FeeLedgerController{
		DB:       db,
		Ledgers:  service.NewLedgerService(db, penaltyService.NewRegistry(db)),
		Payments: service.NewPaymentProcessor(db),
		Now:      time.Now,

		RecomputeTimeout: service.DefaultRecomputeTimeout,
	}
}

var ledgerSortColumns = map[string]string{
	"due_date":      "fee_ledger_due_date",
	"created_at":    "fee_ledger_created_at",
	"academic_year": "fee_ledger_academic_year",
	"due_amount":    "fee_ledger_due_amount",
	"status":        "fee_ledger_status",
}

func (h *FeeLedgerController) listFilter(c *fiber.Ctx, p helper.Params) (service.ListFilter, error) {
	orderClause, _ := p.SafeOrderClause(ledgerSortColumns, "due_date")
	f := service.ListFilter{
		StudentRef:   c.Query("student_ref"),
		AcademicYear: c.Query("academic_year"),
		Status:       c.Query("status"),
		Order:        orderClause,
		Limit:        p.Limit(),
		Offset:       p.Offset(),
	}
	if v := strings.TrimSpace(c.Query("semester")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fiber.NewError(fiber.StatusBadRequest, "semester must be a positive integer")
		}
		f.Semester = &n
	}
	return f, nil
}

/* =======================================================
   ADMIN
======================================================= */

// POST /fee-ledgers
func (h *FeeLedgerController) Create(c *fiber.Ctx) error {
	var in dto.FeeLedgerCreateDTO
	if ok, err := helper.ParseAndValidate(c, &in); !ok {
		return err
	}
	input, err := in.ToInput()
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	l, err := h.Ledgers.Create(c.UserContext(), input)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "fee ledger created", dto.ToFeeLedgerResponse(*l))
}

// GET /fee-ledgers?student_ref=&academic_year=&semester=&status=&page=&per_page=&sort_by=&order=
func (h *FeeLedgerController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "due_date", "asc", helper.AdminOpts)
	f, err := h.listFilter(c, p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	list, total, err := h.Ledgers.List(c.UserContext(), f)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToFeeLedgerResponses(list), p.Pagination(total))
}

// GET /fee-ledgers/:id
func (h *FeeLedgerController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	l, err := h.Ledgers.Get(c.UserContext(), id, true)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToFeeLedgerResponse(*l))
}

// GET /fee-ledgers/:id/payments
func (h *FeeLedgerController) ListPayments(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	list, err := h.Ledgers.History(c.UserContext(), id)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToPaymentRecordResponses(list))
}

// POST /fee-ledgers/:id/payments
func (h *FeeLedgerController) ProcessPayment(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var in dto.ProcessPaymentDTO
	if ok, err := helper.ParseAndValidate(c, &in); !ok {
		return err
	}
	input, err := in.ToInput(id)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	res, err := h.Payments.Process(c.UserContext(), input)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "payment recorded", dto.ToPaymentResultResponse(res))
}

// POST /fee-ledgers/:id/apply-penalty  body: {"as_of": "2025-01-31"}
func (h *FeeLedgerController) ApplyPenalty(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	asOf, err := h.parseAsOf(c)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	l, err := h.Ledgers.ApplyPenalty(c.UserContext(), id, asOf)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "penalty recomputed", dto.ToFeeLedgerResponse(*l))
}

// POST /fee-ledgers/recompute-overdue  body: {"as_of": "..."}
func (h *FeeLedgerController) RecomputeOverdue(c *fiber.Ctx) error {
	asOf, err := h.parseAsOf(c)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	// walk semua ledger bisa jauh melebihi deadline request (RequestContext); pakai context sendiri
	ctx, cancel := context.WithTimeout(context.Background(), h.RecomputeTimeout)
	defer cancel()

	sum, err := scheduler.RunPenaltyRecompute(ctx, h.Ledgers, asOf)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return helper.JsonErrorCode(c, fiber.StatusGatewayTimeout, "RECOMPUTE_INCOMPLETE",
				"recompute stopped before finishing", map[string]any{"summary": sum})
		}
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "recompute finished", sum)
}

func (h *FeeLedgerController) parseAsOf(c *fiber.Ctx) (time.Time, error) {
	var in dto.AsOfRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
	}
	if v := strings.TrimSpace(c.Query("as_of")); v != "" {
		in.AsOf = v
	}
	return in.Resolve(h.Now())
}

/* =======================================================
   STUDENT (self-service)
======================================================= */

// GET /fee-ledgers/my?academic_year=&status=
func (h *FeeLedgerController) ListMine(c *fiber.Ctx) error {
	ref, err := helper.GetStudentRefFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p := helper.ParseFiber(c, "due_date", "asc", helper.DefaultOpts)
	f, err := h.listFilter(c, p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	f.StudentRef = ref

	list, total, err := h.Ledgers.List(c.UserContext(), f)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToFeeLedgerResponses(list), p.Pagination(total))
}

// GET /fee-ledgers/:id (hanya ledger milik sendiri)
func (h *FeeLedgerController) GetMine(c *fiber.Ctx) error {
	ref, err := helper.GetStudentRefFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	l, err := h.Ledgers.Get(c.UserContext(), id, true)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	if l.FeeLedgerStudentRef != ref {
		return helper.JsonErrorCode(c, fiber.StatusNotFound, "NOT_FOUND", "fee ledger not found", nil)
	}
	return helper.JsonOK(c, "ok", dto.ToFeeLedgerResponse(*l))
}
