// file: internals/features/finance/penalties/dto/penalty_config_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"feeledger_backend/internals/features/finance/penalties/model"
)

////////////////////////////////////////////////////////////////////////////////
// PENALTY CONFIG - DTO
////////////////////////////////////////////////////////////////////////////////

// Aturan denda (dipakai create & preview)
type PenaltyRuleDTO struct {
	PenaltyType       string   `json:"penalty_type" validate:"required,oneof=fixed percentage daily"`
	PenaltyAmount     *int64   `json:"penalty_amount,omitempty" validate:"omitempty,min=0"`
	PenaltyPercentage *float64 `json:"penalty_percentage,omitempty" validate:"omitempty,min=0,max=100"`
	GracePeriodDays   int      `json:"grace_period_days" validate:"min=0,max=365"`
	MaxPenaltyAmount  *int64   `json:"max_penalty_amount,omitempty" validate:"omitempty,min=0"`
}

// Create
type PenaltyConfigCreateDTO struct {
	AcademicYear string `json:"academic_year" validate:"required,notblank,max=20"`
	PenaltyRuleDTO
	IsActive *bool   `json:"is_active,omitempty"`
	Note     *string `json:"note,omitempty"`
}

// Update (partial)
type PenaltyConfigUpdateDTO struct {
	AcademicYear      *string  `json:"academic_year,omitempty" validate:"omitempty,notblank,max=20"`
	PenaltyType       *string  `json:"penalty_type,omitempty" validate:"omitempty,oneof=fixed percentage daily"`
	PenaltyAmount     *int64   `json:"penalty_amount,omitempty" validate:"omitempty,min=0"`
	PenaltyPercentage *float64 `json:"penalty_percentage,omitempty" validate:"omitempty,min=0,max=100"`
	GracePeriodDays   *int     `json:"grace_period_days,omitempty" validate:"omitempty,min=0,max=365"`
	MaxPenaltyAmount  *int64   `json:"max_penalty_amount,omitempty" validate:"omitempty,min=0"`
	ClearMaxPenalty   bool     `json:"clear_max_penalty,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
	Note              *string  `json:"note,omitempty"`
}

// Response
type PenaltyConfigResponse struct {
	PenaltyConfigID   uuid.UUID `json:"penalty_config_id"`
	AcademicYear      string    `json:"academic_year"`
	PenaltyType       string    `json:"penalty_type"`
	PenaltyAmount     *int64    `json:"penalty_amount,omitempty"`
	PenaltyPercentage *float64  `json:"penalty_percentage,omitempty"`
	GracePeriodDays   int       `json:"grace_period_days"`
	MaxPenaltyAmount  *int64    `json:"max_penalty_amount,omitempty"`
	IsActive          bool      `json:"is_active"`
	Note              *string   `json:"note,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

////////////////////////////////////////////////////////////////////////////////
// PREVIEW (hitung denda tanpa simpan)
////////////////////////////////////////////////////////////////////////////////

type PenaltyPreviewRequest struct {
	FeeAmount   int64          `json:"fee_amount" validate:"min=0"`
	DaysOverdue int            `json:"days_overdue"`
	Rule        PenaltyRuleDTO `json:"rule"`
}

type PenaltyPreviewResponse struct {
	FeeAmount     int64  `json:"fee_amount"`
	DaysOverdue   int    `json:"days_overdue"`
	EffectiveDays int    `json:"effective_days"`
	PenaltyType   string `json:"penalty_type"`
	Penalty       int64  `json:"penalty"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS - Model <-> DTO
////////////////////////////////////////////////////////////////////////////////

func percentage(p *float64) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*p))
}

func (in PenaltyRuleDTO) ToModel() model.PenaltyConfig {
	return model.PenaltyConfig{
		PenaltyConfigType:            model.PenaltyType(in.PenaltyType),
		PenaltyConfigAmount:          in.PenaltyAmount,
		PenaltyConfigPercentage:      percentage(in.PenaltyPercentage),
		PenaltyConfigGracePeriodDays: in.GracePeriodDays,
		PenaltyConfigMaxAmount:       in.MaxPenaltyAmount,
	}
}

func (in PenaltyConfigCreateDTO) ToModel() model.PenaltyConfig {
	m := in.PenaltyRuleDTO.ToModel()
	m.PenaltyConfigAcademicYear = strings.TrimSpace(in.AcademicYear)
	m.PenaltyConfigIsActive = true
	if in.IsActive != nil {
		m.PenaltyConfigIsActive = *in.IsActive
	}
	m.PenaltyConfigNote = in.Note
	return m
}

// Apply: patch field yang dikirim saja.
func (in PenaltyConfigUpdateDTO) Apply(m *model.PenaltyConfig) {
	if in.AcademicYear != nil {
		m.PenaltyConfigAcademicYear = strings.TrimSpace(*in.AcademicYear)
	}
	if in.PenaltyType != nil {
		m.PenaltyConfigType = model.PenaltyType(*in.PenaltyType)
	}
	if in.PenaltyAmount != nil {
		m.PenaltyConfigAmount = in.PenaltyAmount
	}
	if in.PenaltyPercentage != nil {
		m.PenaltyConfigPercentage = percentage(in.PenaltyPercentage)
	}
	if in.GracePeriodDays != nil {
		m.PenaltyConfigGracePeriodDays = *in.GracePeriodDays
	}
	if in.ClearMaxPenalty {
		m.PenaltyConfigMaxAmount = nil
	} else if in.MaxPenaltyAmount != nil {
		m.PenaltyConfigMaxAmount = in.MaxPenaltyAmount
	}
	if in.IsActive != nil {
		m.PenaltyConfigIsActive = *in.IsActive
	}
	if in.Note != nil {
		m.PenaltyConfigNote = in.Note
	}
}

func ToPenaltyConfigResponse(m model.PenaltyConfig) PenaltyConfigResponse {
	var pct *float64
	if m.PenaltyConfigPercentage.Valid {
		f := m.PenaltyConfigPercentage.Decimal.InexactFloat64()
		pct = &f
	}
	return PenaltyConfigResponse{
		PenaltyConfigID:   m.PenaltyConfigID,
		AcademicYear:      m.PenaltyConfigAcademicYear,
		PenaltyType:       string(m.PenaltyConfigType),
		PenaltyAmount:     m.PenaltyConfigAmount,
		PenaltyPercentage: pct,
		GracePeriodDays:   m.PenaltyConfigGracePeriodDays,
		MaxPenaltyAmount:  m.PenaltyConfigMaxAmount,
		IsActive:          m.PenaltyConfigIsActive,
		Note:              m.PenaltyConfigNote,
		CreatedAt:         m.PenaltyConfigCreatedAt,
		UpdatedAt:         m.PenaltyConfigUpdatedAt,
	}
}

func ToPenaltyConfigResponses(list []model.PenaltyConfig) []PenaltyConfigResponse {
	out := make([]PenaltyConfigResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToPenaltyConfigResponse(m))
	}
	return out
}
