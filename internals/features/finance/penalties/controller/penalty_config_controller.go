// file: internals/features/finance/penalties/controller/penalty_config_controller.go
package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"feeledger_backend/internals/features/finance/penalties/dto"
	"feeledger_backend/internals/features/finance/penalties/model"
	"feeledger_backend/internals/features/finance/penalties/service"
	helper "feeledger_backend/internals/helpers"
)

type PenaltyConfigController struct {
	DB       *gorm.DB
	Registry *service.Registry
}

func NewPenaltyConfigController(db *gorm.DB) *PenaltyConfigController {
	return &PenaltyConfigController{DB: db, Registry: service.NewRegistry(db)}
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params("id")))
}

/* =======================================================
   PENALTY CONFIGS (ADMIN)
======================================================= */

// POST /penalty-configs
func (h *PenaltyConfigController) Create(c *fiber.Ctx) error {
	var in dto.PenaltyConfigCreateDTO
	if ok, err := helper.ParseAndValidate(c, &in); !ok {
		return err
	}

	m := in.ToModel()
	if err := h.Registry.Create(c.UserContext(), &m); err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonCreated(c, "penalty config created", dto.ToPenaltyConfigResponse(m))
}

// PATCH /penalty-configs/:id
func (h *PenaltyConfigController) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	var in dto.PenaltyConfigUpdateDTO
	if ok, err := helper.ParseAndValidate(c, &in); !ok {
		return err
	}

	m, err := h.Registry.Update(c.UserContext(), id, in.Apply)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonUpdated(c, "penalty config updated", dto.ToPenaltyConfigResponse(*m))
}

// DELETE /penalty-configs/:id
func (h *PenaltyConfigController) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	if err := h.Registry.Delete(c.UserContext(), id); err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonDeleted(c, "penalty config deleted", fiber.Map{"penalty_config_id": id})
}

// GET /penalty-configs/:id
func (h *PenaltyConfigController) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid id")
	}
	m, err := h.Registry.GetByID(c.UserContext(), id)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToPenaltyConfigResponse(*m))
}

// GET /penalty-configs/active/:academic_year
func (h *PenaltyConfigController) GetActive(c *fiber.Ctx) error {
	year := strings.TrimSpace(c.Params("academic_year"))
	if year == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "academic_year is required")
	}
	m, err := h.Registry.GetActive(c.UserContext(), nil, year)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToPenaltyConfigResponse(*m))
}

// GET /penalty-configs?academic_year=&is_active=&page=&per_page=
func (h *PenaltyConfigController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "academic_year", "desc", helper.DefaultOpts)
	orderClause, _ := p.SafeOrderClause(map[string]string{
		"academic_year": "penalty_config_academic_year",
		"created_at":    "penalty_config_created_at",
		"updated_at":    "penalty_config_updated_at",
	}, "academic_year")

	f := service.ListFilter{
		AcademicYear: c.Query("academic_year"),
		Order:        orderClause,
		Limit:        p.Limit(),
		Offset:       p.Offset(),
	}
	if v := strings.TrimSpace(c.Query("is_active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "is_active must be boolean")
		}
		f.IsActive = &b
	}

	list, total, err := h.Registry.List(c.UserContext(), f)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToPenaltyConfigResponses(list), p.Pagination(total))
}

// POST /penalty-configs/preview
func (h *PenaltyConfigController) Preview(c *fiber.Ctx) error {
	var in dto.PenaltyPreviewRequest
	if ok, err := helper.ParseAndValidate(c, &in); !ok {
		return err
	}

	cfg := in.Rule.ToModel()
	penalty, err := service.Calculate(in.FeeAmount, in.DaysOverdue, cfg)
	if err != nil {
		return helper.FromServiceError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.PenaltyPreviewResponse{
		FeeAmount:     in.FeeAmount,
		DaysOverdue:   in.DaysOverdue,
		EffectiveDays: effectiveDays(in.DaysOverdue, cfg),
		PenaltyType:   string(cfg.PenaltyConfigType),
		Penalty:       penalty,
	})
}

func effectiveDays(daysOverdue int, cfg model.PenaltyConfig) int {
	if d := daysOverdue - cfg.PenaltyConfigGracePeriodDays; d > 0 {
		return d
	}
	return 0
}
