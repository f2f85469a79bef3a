// file: internals/features/finance/penalties/service/penalty_config_registry.go
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"feeledger_backend/internals/features/finance/finerr"
	"feeledger_backend/internals/features/finance/penalties/model"
	helper "feeledger_backend/internals/helpers"
)

// Registry: CRUD penalty_configs + lookup config aktif per tahun ajaran.
type Registry struct {
	DB *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{DB: db}
}

type ListFilter struct {
	AcademicYear string
	IsActive     *bool
	Order        string
	Limit        int
	Offset       int
}

func (r *Registry) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.DB.WithContext(ctx)
}

// GetActive dipanggil engine denda setiap kali hitung ulang (tidak di-cache),
// jadi perubahan config langsung berlaku untuk ledger yang belum lunas.
func (r *Registry) GetActive(ctx context.Context, tx *gorm.DB, academicYear string) (*model.PenaltyConfig, error) {
	var cfg model.PenaltyConfig
	err := r.conn(ctx, tx).
		Where("penalty_config_academic_year = ? AND penalty_config_is_active = ?", strings.TrimSpace(academicYear), true).
		Take(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, finerr.NotFound("no active penalty config for academic year %s", academicYear)
		}
		return nil, errors.Wrap(err, "load active penalty config")
	}
	return &cfg, nil
}

func (r *Registry) GetByID(ctx context.Context, id uuid.UUID) (*model.PenaltyConfig, error) {
	var cfg model.PenaltyConfig
	if err := r.DB.WithContext(ctx).Take(&cfg, "penalty_config_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, finerr.NotFound("penalty config %s not found", id)
		}
		return nil, errors.Wrap(err, "load penalty config")
	}
	return &cfg, nil
}

func (r *Registry) Create(ctx context.Context, cfg *model.PenaltyConfig) error {
	cfg.PenaltyConfigAcademicYear = strings.TrimSpace(cfg.PenaltyConfigAcademicYear)
	if cfg.PenaltyConfigAcademicYear == "" {
		return finerr.InvalidInput("academic year is required")
	}
	if err := ValidateConfig(*cfg); err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Create(cfg).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return finerr.Conflict("penalty config for academic year %s already exists", cfg.PenaltyConfigAcademicYear)
		}
		return errors.Wrap(err, "create penalty config")
	}
	return nil
}

// Update: load → apply (patch dari controller) → validasi ulang → save.
func (r *Registry) Update(ctx context.Context, id uuid.UUID, apply func(*model.PenaltyConfig)) (*model.PenaltyConfig, error) {
	cfg, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(cfg)
	cfg.PenaltyConfigAcademicYear = strings.TrimSpace(cfg.PenaltyConfigAcademicYear)
	if err := ValidateConfig(*cfg); err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Save(cfg).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, finerr.Conflict("penalty config for academic year %s already exists", cfg.PenaltyConfigAcademicYear)
		}
		return nil, errors.Wrap(err, "update penalty config")
	}
	return cfg, nil
}

func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&model.PenaltyConfig{}, "penalty_config_id = ?", id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete penalty config")
	}
	if res.RowsAffected == 0 {
		return finerr.NotFound("penalty config %s not found", id)
	}
	return nil
}

func (r *Registry) List(ctx context.Context, f ListFilter) ([]model.PenaltyConfig, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.PenaltyConfig{})
	if y := strings.TrimSpace(f.AcademicYear); y != "" {
		q = q.Where("penalty_config_academic_year = ?", y)
	}
	if f.IsActive != nil {
		q = q.Where("penalty_config_is_active = ?", *f.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count penalty configs")
	}

	if f.Order != "" {
		q = q.Order(f.Order)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []model.PenaltyConfig
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list penalty configs")
	}
	return out, total, nil
}
