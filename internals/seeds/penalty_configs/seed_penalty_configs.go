package penalty_configs

import (
	"context"
	"log"
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"feeledger_backend/internals/features/finance/finerr"
	"feeledger_backend/internals/features/finance/penalties/model"
	"feeledger_backend/internals/features/finance/penalties/service"
)

type PenaltyConfigSeed struct {
	AcademicYear    string           `json:"academic_year"`
	PenaltyType     string           `json:"penalty_type"`
	PenaltyAmount   *int64           `json:"penalty_amount"`
	Percentage      *decimal.Decimal `json:"penalty_percentage"`
	GracePeriodDays int              `json:"grace_period_days"`
	MaxAmount       *int64           `json:"max_penalty_amount"`
	IsActive        *bool            `json:"is_active"`
	Note            *string          `json:"note"`
}

func (s PenaltyConfigSeed) toModel() *model.PenaltyConfig {
	active := true
	if s.IsActive != nil {
		active = *s.IsActive
	}
	m := &model.PenaltyConfig{
		PenaltyConfigAcademicYear:    s.AcademicYear,
		PenaltyConfigType:            model.PenaltyType(s.PenaltyType),
		PenaltyConfigAmount:          s.PenaltyAmount,
		PenaltyConfigGracePeriodDays: s.GracePeriodDays,
		PenaltyConfigMaxAmount:       s.MaxAmount,
		PenaltyConfigIsActive:        active,
		PenaltyConfigNote:            s.Note,
	}
	if s.Percentage != nil {
		m.PenaltyConfigPercentage = decimal.NewNullDecimal(*s.Percentage)
	}
	return m
}

// SeedPenaltyConfigsFromJSON: insert config per tahun ajaran, yang sudah ada dilewati.
// Return jumlah config yang baru masuk.
func SeedPenaltyConfigsFromJSON(ctx context.Context, db *gorm.DB, filePath string) (int, error) {
	log.Println("📥 Membaca file penalty config:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		return 0, errors.Wrap(err, "read seed file")
	}
	var seeds []PenaltyConfigSeed
	if err := sonic.Unmarshal(file, &seeds); err != nil {
		return 0, errors.Wrap(err, "decode seed file")
	}

	reg := service.NewRegistry(db)
	inserted := 0
	for _, s := range seeds {
		err := reg.Create(ctx, s.toModel())
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, finerr.ErrConflict):
			log.Printf("ℹ️ Penalty config '%s' sudah ada, dilewati.", s.AcademicYear)
		default:
			return inserted, errors.Wrapf(err, "seed penalty config %s", s.AcademicYear)
		}
	}
	log.Printf("✅ Berhasil insert %d penalty config", inserted)
	return inserted, nil
}
