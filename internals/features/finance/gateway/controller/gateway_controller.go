// file: internals/features/finance/gateway/controller/gateway_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	ledgerService "feeledger_backend/internals/features/finance/fee_ledgers/service"
	"feeledger_backend/internals/features/finance/gateway/dto"
	"feeledger_backend/internals/features/finance/gateway/service"
	helper "feeledger_backend/internals/helpers"
	"feeledger_backend/internals/helpers/dbtime"
)

type GatewayController struct {
	DB         *gorm.DB
	Reconciler *service.Reconciler
}

// Options: diisi dari configs saat bootstrap.
type Options struct {
	Secret            string
	MerchantID        string
	Provider          string // hosted | midtrans
	BaseURL           string
	MidtransServerKey string
	MidtransUseProd   bool
}

func NewURLProvider(o Options) service.PaymentURLProvider {
	if strings.EqualFold(o.Provider, "midtrans") && o.MidtransServerKey != "" {
		return service.NewMidtransProvider(o.MidtransServerKey, o.MidtransUseProd)
	}
	return service.StaticURLProvider{Provider: o.Provider, BaseURL: o.BaseURL}
}

func NewGatewayController(db *gorm.DB, o Options) *GatewayController {
	return &GatewayController{
		DB: db,
		Reconciler: service.NewReconciler(
			db,
			ledgerService.NewPaymentProcessor(db),
			NewURLProvider(o),
			o.Secret,
			o.MerchantID,
		),
	}
}

/* =======================================================
   STUDENT
======================================================= */

// POST /gateway/initiate
func (h *GatewayController) Initiate(c *fiber.Ctx) error {
	ref, err := helper.GetStudentRefFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var in dto.InitiateRequest
	if ok, err := helper.ParseAndValidate(c, &in); !ok {
		return err
	}
	feeID, _ := uuid.Parse(in.FeeID)

	res, err := h.Reconciler.Initiate(c.UserContext(), service.InitiateInput{
		StudentID:   ref,
		FeeID:       feeID,
		Amount:      in.Amount,
		RedirectURL: in.RedirectURL,
	})
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "payment initiated", res)
}

/* =======================================================
   PUBLIC (dipanggil gateway)
======================================================= */

// POST /gateway/callback
func (h *GatewayController) Callback(c *fiber.Ctx) error {
	in, err := dto.ParseCallbackRequest(c.Body())
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid callback body")
	}
	checksum := in.Checksum
	if checksum == "" {
		checksum = strings.TrimSpace(c.Get("X-Checksum"))
	}

	ack, err := h.Reconciler.Callback(c.UserContext(), in.Payload, checksum)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "callback acknowledged", ack)
}

/* =======================================================
   ADMIN
======================================================= */

// GET /gateway-events?status=&fee_id=&transaction_id=&start=&end=&page=&per_page=
func (h *GatewayController) ListEvents(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "received_at", "desc", helper.AdminOpts)
	f := service.EventFilter{
		Status:        c.Query("status"),
		TransactionID: c.Query("transaction_id"),
		Limit:         p.Limit(),
		Offset:        p.Offset(),
	}
	if v := strings.TrimSpace(c.Query("fee_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid fee_id")
		}
		f.FeeLedgerID = &id
	}
	var err error
	if f.Start, err = dbtime.QueryDate(c, "start"); err != nil {
		return helper.FromFiberError(c, err)
	}
	if f.End, err = dbtime.QueryDate(c, "end"); err != nil {
		return helper.FromFiberError(c, err)
	}

	rows, total, err := h.Reconciler.ListEvents(c.UserContext(), f)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModelEvents(rows), p.Pagination(total))
}
