// file: internals/features/finance/penalties/service/penalty_policy.go
package service

import (
	"github.com/shopspring/decimal"

	"feeledger_backend/internals/features/finance/finerr"
	"feeledger_backend/internals/features/finance/penalties/model"
)

var hundred = decimal.NewFromInt(100)

// Calculate menghitung denda untuk tagihan feeAmount yang telat daysOverdue hari.
//
// Urutan: grace period → rumus per tipe → cap maxAmount → pembulatan ke satuan terkecil
// (half away from zero). Config yang tidak lengkap untuk tipenya → ConfigurationError.
func Calculate(feeAmount int64, daysOverdue int, cfg model.PenaltyConfig) (int64, error) {
	if err := ValidateConfig(cfg); err != nil {
		return 0, err
	}
	if daysOverdue <= cfg.PenaltyConfigGracePeriodDays {
		return 0, nil
	}
	effectiveDays := int64(daysOverdue - cfg.PenaltyConfigGracePeriodDays)

	var penalty decimal.Decimal
	switch cfg.PenaltyConfigType {
	case model.PenaltyTypeFixed:
		penalty = decimal.NewFromInt(*cfg.PenaltyConfigAmount)
	case model.PenaltyTypePercentage:
		penalty = decimal.NewFromInt(feeAmount).
			Mul(cfg.PenaltyConfigPercentage.Decimal).
			Div(hundred)
	case model.PenaltyTypeDaily:
		penalty = decimal.NewFromInt(*cfg.PenaltyConfigAmount).
			Mul(decimal.NewFromInt(effectiveDays))
	}

	if cfg.PenaltyConfigMaxAmount != nil {
		capAmount := decimal.NewFromInt(*cfg.PenaltyConfigMaxAmount)
		if penalty.GreaterThan(capAmount) {
			penalty = capAmount
		}
	}
	if penalty.IsNegative() {
		penalty = decimal.Zero
	}
	return penalty.Round(0).IntPart(), nil
}

// ValidateConfig memastikan field wajib untuk tipe denda terisi & masuk akal.
func ValidateConfig(cfg model.PenaltyConfig) error {
	if !cfg.PenaltyConfigType.Valid() {
		return finerr.Configuration("unknown penalty type %q", cfg.PenaltyConfigType)
	}
	if cfg.PenaltyConfigGracePeriodDays < 0 {
		return finerr.Configuration("grace period days must be >= 0")
	}
	if cfg.PenaltyConfigMaxAmount != nil && *cfg.PenaltyConfigMaxAmount < 0 {
		return finerr.Configuration("max penalty amount must be >= 0")
	}

	switch cfg.PenaltyConfigType {
	case model.PenaltyTypeFixed, model.PenaltyTypeDaily:
		if cfg.PenaltyConfigAmount == nil {
			return finerr.Configuration("penalty amount is required for %s penalty", cfg.PenaltyConfigType)
		}
		if *cfg.PenaltyConfigAmount < 0 {
			return finerr.Configuration("penalty amount must be >= 0")
		}
	case model.PenaltyTypePercentage:
		if !cfg.PenaltyConfigPercentage.Valid {
			return finerr.Configuration("penalty percentage is required for percentage penalty")
		}
		p := cfg.PenaltyConfigPercentage.Decimal
		if p.IsNegative() || p.GreaterThan(hundred) {
			return finerr.Configuration("penalty percentage must be between 0 and 100")
		}
	}
	return nil
}
