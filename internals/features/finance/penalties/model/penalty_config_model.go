// file: internals/features/finance/penalties/model/penalty_config_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- ENUM penalty_type -------------------------------------------------------
type PenaltyType string

const (
	PenaltyTypeFixed      PenaltyType = "fixed"      // flat sekali, tidak tergantung jumlah hari
	PenaltyTypePercentage PenaltyType = "percentage" // persen dari total tagihan
	PenaltyTypeDaily      PenaltyType = "daily"      // nominal × hari efektif (setelah grace)
)

func (t PenaltyType) Valid() bool {
	switch t {
	case PenaltyTypeFixed, PenaltyTypePercentage, PenaltyTypeDaily:
		return true
	}
	return false
}

// --- MODEL penalty_configs ---------------------------------------------------
// Satu config per tahun ajaran. Dibaca live oleh engine denda (bukan FK di ledger).
type PenaltyConfig struct {
	PenaltyConfigID uuid.UUID `json:"penalty_config_id" gorm:"column:penalty_config_id;type:uuid;primaryKey"`

	PenaltyConfigAcademicYear string      `json:"penalty_config_academic_year" gorm:"column:penalty_config_academic_year;type:varchar(20);not null;uniqueIndex:uq_penalty_configs_academic_year"`
	PenaltyConfigType         PenaltyType `json:"penalty_config_type" gorm:"column:penalty_config_type;type:varchar(20);not null"`

	// Nominal (fixed/daily) & persen (percentage)
	PenaltyConfigAmount     *int64              `json:"penalty_config_amount,omitempty" gorm:"column:penalty_config_amount"`
	PenaltyConfigPercentage decimal.NullDecimal `json:"penalty_config_percentage" gorm:"column:penalty_config_percentage;type:numeric(5,2)"`

	PenaltyConfigGracePeriodDays int    `json:"penalty_config_grace_period_days" gorm:"column:penalty_config_grace_period_days;not null;default:0"`
	PenaltyConfigMaxAmount       *int64 `json:"penalty_config_max_amount,omitempty" gorm:"column:penalty_config_max_amount"`

	PenaltyConfigIsActive bool    `json:"penalty_config_is_active" gorm:"column:penalty_config_is_active;not null"`
	PenaltyConfigNote     *string `json:"penalty_config_note,omitempty" gorm:"column:penalty_config_note;type:text"`

	PenaltyConfigCreatedAt time.Time `json:"penalty_config_created_at" gorm:"column:penalty_config_created_at;not null;autoCreateTime"`
	PenaltyConfigUpdatedAt time.Time `json:"penalty_config_updated_at" gorm:"column:penalty_config_updated_at;not null;autoUpdateTime"`
}

func (PenaltyConfig) TableName() string { return "penalty_configs" }

func (m *PenaltyConfig) BeforeCreate(tx *gorm.DB) error {
	if m.PenaltyConfigID == uuid.Nil {
		m.PenaltyConfigID = uuid.New()
	}
	return nil
}
