package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeledger_backend/internals/databases/databasetest"
	"feeledger_backend/internals/features/finance/finerr"
	"feeledger_backend/internals/features/finance/penalties/model"
)

func TestRegistryActiveLookup(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(databasetest.Open(t))

	_, err := reg.GetActive(ctx, nil, "2024-2025")
	assert.True(t, errors.Is(err, finerr.ErrNotFound))

	cfg := &model.PenaltyConfig{
		PenaltyConfigAcademicYear:    " 2024-2025 ",
		PenaltyConfigType:            model.PenaltyTypeDaily,
		PenaltyConfigAmount:          i64(50),
		PenaltyConfigGracePeriodDays: 3,
		PenaltyConfigIsActive:        true,
	}
	require.NoError(t, reg.Create(ctx, cfg))
	assert.Equal(t, "2024-2025", cfg.PenaltyConfigAcademicYear)

	got, err := reg.GetActive(ctx, nil, "2024-2025")
	require.NoError(t, err)
	assert.Equal(t, cfg.PenaltyConfigID, got.PenaltyConfigID)
	assert.Equal(t, int64(50), *got.PenaltyConfigAmount)

	// nonaktif → tidak ada config aktif
	_, err = reg.Update(ctx, cfg.PenaltyConfigID, func(c *model.PenaltyConfig) { c.PenaltyConfigIsActive = false })
	require.NoError(t, err)
	_, err = reg.GetActive(ctx, nil, "2024-2025")
	assert.True(t, errors.Is(err, finerr.ErrNotFound))
}

func TestRegistryRejectsInvalidAndDuplicate(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(databasetest.Open(t))

	err := reg.Create(ctx, &model.PenaltyConfig{PenaltyConfigAcademicYear: "2024-2025", PenaltyConfigType: model.PenaltyTypeDaily})
	assert.True(t, errors.Is(err, finerr.ErrConfiguration))

	err = reg.Create(ctx, &model.PenaltyConfig{PenaltyConfigType: model.PenaltyTypeFixed, PenaltyConfigAmount: i64(1)})
	assert.True(t, errors.Is(err, finerr.ErrInvalidInput))

	ok := &model.PenaltyConfig{PenaltyConfigAcademicYear: "2024-2025", PenaltyConfigType: model.PenaltyTypeFixed, PenaltyConfigAmount: i64(500), PenaltyConfigIsActive: true}
	require.NoError(t, reg.Create(ctx, ok))

	err = reg.Create(ctx, &model.PenaltyConfig{PenaltyConfigAcademicYear: "2024-2025", PenaltyConfigType: model.PenaltyTypeFixed, PenaltyConfigAmount: i64(1)})
	assert.True(t, errors.Is(err, finerr.ErrConflict))

	// update yang bikin config invalid ditolak, row tetap
	_, err = reg.Update(ctx, ok.PenaltyConfigID, func(c *model.PenaltyConfig) { c.PenaltyConfigAmount = nil })
	assert.True(t, errors.Is(err, finerr.ErrConfiguration))
	stored, err := reg.GetByID(ctx, ok.PenaltyConfigID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), *stored.PenaltyConfigAmount)
}

func TestRegistryListAndDelete(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(databasetest.Open(t))

	for _, y := range []string{"2023-2024", "2024-2025", "2025-2026"} {
		require.NoError(t, reg.Create(ctx, &model.PenaltyConfig{
			PenaltyConfigAcademicYear: y,
			PenaltyConfigType:         model.PenaltyTypeFixed,
			PenaltyConfigAmount:       i64(100),
			PenaltyConfigIsActive:     y != "2023-2024",
		}))
	}

	active := true
	rows, total, err := reg.List(ctx, ListFilter{IsActive: &active, Order: "penalty_config_academic_year ASC"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-2025", rows[0].PenaltyConfigAcademicYear)

	require.NoError(t, reg.Delete(ctx, rows[0].PenaltyConfigID))
	err = reg.Delete(ctx, rows[0].PenaltyConfigID)
	assert.True(t, errors.Is(err, finerr.ErrNotFound))
}
