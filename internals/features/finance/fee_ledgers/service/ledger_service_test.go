package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeledger_backend/internals/features/finance/fee_ledgers/model"
	"feeledger_backend/internals/features/finance/finerr"
	penaltyModel "feeledger_backend/internals/features/finance/penalties/model"
)

var tenDaysAgo = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

func TestCreateLedger(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 12000, "library": 1000, "lab": 2000}, testNow.AddDate(0, 1, 0))
	assert.Equal(t, int64(15000), l.FeeLedgerTotalAmount)
	assert.Equal(t, int64(15000), l.FeeLedgerDueAmount)
	assert.Equal(t, model.FeeLedgerStatusPending, l.FeeLedgerStatus)
	assert.EqualValues(t, 1, l.FeeLedgerVersion)

	got, err := e.ledgers.Get(ctx, l.FeeLedgerID, true)
	require.NoError(t, err)
	assert.Equal(t, model.FeeBreakdown{"tuition": 12000, "library": 1000, "lab": 2000}, got.Breakdown())
	assert.Empty(t, got.PaymentHistory)

	_, err = e.ledgers.Create(ctx, CreateLedgerInput{
		StudentRef: "STU-1", AcademicYear: "2024-2025", Semester: 1,
		Breakdown: model.FeeBreakdown{"tuition": 1}, DueDate: testNow,
	})
	assert.True(t, errors.Is(err, finerr.ErrDuplicateLedger))

	// semester lain boleh
	_, err = e.ledgers.Create(ctx, CreateLedgerInput{
		StudentRef: "STU-1", AcademicYear: "2024-2025", Semester: 2,
		Breakdown: model.FeeBreakdown{"tuition": 1}, DueDate: testNow,
	})
	assert.NoError(t, err)
}

func TestCreateLedgerValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	base := CreateLedgerInput{StudentRef: "STU-1", AcademicYear: "2024-2025", Semester: 1, DueDate: testNow}

	in := base
	assert.True(t, errors.Is(mustErr(e.ledgers.Create(ctx, in)), finerr.ErrInvalidInput))

	in.Breakdown = model.FeeBreakdown{"parking": 100}
	assert.True(t, errors.Is(mustErr(e.ledgers.Create(ctx, in)), finerr.ErrInvalidInput))

	in.Breakdown = model.FeeBreakdown{"tuition": -1}
	assert.True(t, errors.Is(mustErr(e.ledgers.Create(ctx, in)), finerr.ErrInvalidAmount))

	// total tidak boleh overflow jadi negatif
	in.Breakdown = model.FeeBreakdown{"tuition": math.MaxInt64, "lab": 1}
	assert.True(t, errors.Is(mustErr(e.ledgers.Create(ctx, in)), finerr.ErrInvalidAmount))
	in.Breakdown = model.FeeBreakdown{"tuition": math.MaxInt64 - 1, "lab": 1}
	_, err := e.ledgers.Create(ctx, in)
	require.NoError(t, err)

	in = base
	in.StudentRef = "  "
	in.Breakdown = model.FeeBreakdown{"tuition": 100}
	assert.True(t, errors.Is(mustErr(e.ledgers.Create(ctx, in)), finerr.ErrInvalidInput))

	_, err = e.ledgers.Get(ctx, uuid.New(), false)
	assert.True(t, errors.Is(err, finerr.ErrNotFound))
}

func mustErr(_ *model.FeeLedger, err error) error { return err }

func TestApplyPenaltyDailyIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.config(t, penaltyModel.PenaltyConfig{
		PenaltyConfigType:            penaltyModel.PenaltyTypeDaily,
		PenaltyConfigAmount:          i64(50),
		PenaltyConfigGracePeriodDays: 3,
	})
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 15000}, tenDaysAgo)

	asOf := tenDaysAgo.AddDate(0, 0, 10)
	got, err := e.ledgers.ApplyPenalty(ctx, l.FeeLedgerID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(350), got.FeeLedgerPenaltyAmount)
	assert.Equal(t, int64(15350), got.FeeLedgerDueAmount)
	assert.Equal(t, model.FeeLedgerStatusOverdue, got.FeeLedgerStatus)
	assert.True(t, got.FeeLedgerIsOverdue)

	stored := e.reload(t, l.FeeLedgerID)
	assert.Equal(t, int64(350), stored.FeeLedgerPenaltyAmount)
	assert.Equal(t, int64(15350), stored.FeeLedgerDueAmount)
	assert.EqualValues(t, 2, stored.FeeLedgerVersion)

	again, err := e.ledgers.ApplyPenalty(ctx, l.FeeLedgerID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(350), again.FeeLedgerPenaltyAmount)
	assert.EqualValues(t, 2, e.reload(t, l.FeeLedgerID).FeeLedgerVersion)
}

func TestApplyPenaltyUsesLiveConfig(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cfg := e.config(t, penaltyModel.PenaltyConfig{
		PenaltyConfigType:            penaltyModel.PenaltyTypeDaily,
		PenaltyConfigAmount:          i64(50),
		PenaltyConfigGracePeriodDays: 3,
	})
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 15000}, tenDaysAgo)
	asOf := tenDaysAgo.AddDate(0, 0, 10)

	_, err := e.ledgers.ApplyPenalty(ctx, l.FeeLedgerID, asOf)
	require.NoError(t, err)

	_, err = e.configs.Update(ctx, cfg.PenaltyConfigID, func(c *penaltyModel.PenaltyConfig) {
		c.PenaltyConfigType = penaltyModel.PenaltyTypePercentage
		c.PenaltyConfigAmount = nil
		c.PenaltyConfigPercentage = decimal.NewNullDecimal(decimal.NewFromInt(2))
	})
	require.NoError(t, err)

	got, err := e.ledgers.ApplyPenalty(ctx, l.FeeLedgerID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.FeeLedgerPenaltyAmount)
	assert.Equal(t, int64(15300), got.FeeLedgerDueAmount)

	// fixed 500 dengan cap 400
	_, err = e.configs.Update(ctx, cfg.PenaltyConfigID, func(c *penaltyModel.PenaltyConfig) {
		c.PenaltyConfigType = penaltyModel.PenaltyTypeFixed
		c.PenaltyConfigAmount = i64(500)
		c.PenaltyConfigMaxAmount = i64(400)
	})
	require.NoError(t, err)
	got, err = e.ledgers.ApplyPenalty(ctx, l.FeeLedgerID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(400), got.FeeLedgerPenaltyAmount)
}

func TestApplyPenaltySkipsPaidAndNotYetDue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.config(t, penaltyModel.PenaltyConfig{PenaltyConfigType: penaltyModel.PenaltyTypeFixed, PenaltyConfigAmount: i64(500)})

	paid := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, tenDaysAgo)
	_, err := e.payments.Process(ctx, ProcessInput{LedgerID: paid.FeeLedgerID, Amount: 1000, Mode: model.PaymentModeCash, TransactionID: "T-PAID"})
	require.NoError(t, err)

	got, err := e.ledgers.ApplyPenalty(ctx, paid.FeeLedgerID, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.FeeLedgerPenaltyAmount)
	assert.Equal(t, model.FeeLedgerStatusPaid, got.FeeLedgerStatus)

	future := e.ledger(t, "STU-2", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))
	got, err = e.ledgers.ApplyPenalty(ctx, future.FeeLedgerID, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.FeeLedgerPenaltyAmount)
	assert.EqualValues(t, 1, e.reload(t, future.FeeLedgerID).FeeLedgerVersion)
}

func TestApplyPenaltyWithoutConfig(t *testing.T) {
	e := newEnv(t)
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, tenDaysAgo)

	_, err := e.ledgers.ApplyPenalty(context.Background(), l.FeeLedgerID, testNow)
	assert.True(t, errors.Is(err, finerr.ErrNotFound))
	assert.Equal(t, int64(0), e.reload(t, l.FeeLedgerID).FeeLedgerPenaltyAmount)
}

func TestRecomputeOverdue(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.config(t, penaltyModel.PenaltyConfig{PenaltyConfigType: penaltyModel.PenaltyTypeFixed, PenaltyConfigAmount: i64(500)})

	overdue := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, tenDaysAgo)
	e.ledger(t, "STU-2", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))

	// tahun ajaran tanpa config → skipped
	_, err := e.ledgers.Create(ctx, CreateLedgerInput{
		StudentRef: "STU-3", AcademicYear: "2023-2024", Semester: 2,
		Breakdown: model.FeeBreakdown{"tuition": 1000}, DueDate: tenDaysAgo,
	})
	require.NoError(t, err)

	sum, err := e.ledgers.RecomputeOverdue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Scanned)
	assert.Equal(t, 1, sum.Updated)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, int64(500), e.reload(t, overdue.FeeLedgerID).FeeLedgerPenaltyAmount)

	// run kedua: tidak ada perubahan
	sum, err = e.ledgers.RecomputeOverdue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Updated)
}

func TestListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, tenDaysAgo)
	e.ledger(t, "STU-2", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))

	rows, total, err := e.ledgers.List(ctx, ListFilter{StudentRef: "STU-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	// status dibaca ulang per waktu baca
	assert.Equal(t, model.FeeLedgerStatusOverdue, rows[0].FeeLedgerStatus)

	sem := 1
	_, total, err = e.ledgers.List(ctx, ListFilter{AcademicYear: "2024-2025", Semester: &sem, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestListStatusFilterFollowsClock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))
	partial := e.ledger(t, "STU-2", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))
	_, err := e.payments.Process(ctx, ProcessInput{LedgerID: partial.FeeLedgerID, Amount: 300, Mode: model.PaymentModeCash, TransactionID: "T-P1"})
	require.NoError(t, err)

	count := func(status string) []model.FeeLedger {
		rows, total, err := e.ledgers.List(ctx, ListFilter{Status: status})
		require.NoError(t, err)
		assert.EqualValues(t, len(rows), total)
		return rows
	}

	require.Len(t, count("pending"), 1)
	assert.Empty(t, count("overdue"))

	// lewat jatuh tempo tanpa recompute denda: status tersimpan masih pending
	e.ledgers.Now = func() time.Time { return testNow.AddDate(0, 0, 10) }
	assert.Equal(t, model.FeeLedgerStatusPending, e.reload(t, l.FeeLedgerID).FeeLedgerStatus)

	assert.Empty(t, count("pending"))
	overdue := count("OVERDUE")
	require.Len(t, overdue, 1)
	assert.Equal(t, l.FeeLedgerID, overdue[0].FeeLedgerID)
	assert.Equal(t, model.FeeLedgerStatusOverdue, overdue[0].FeeLedgerStatus)

	partials := count("partially_paid")
	require.Len(t, partials, 1)
	assert.Equal(t, partial.FeeLedgerID, partials[0].FeeLedgerID)
	assert.Empty(t, count("paid"))

	_, _, err = e.ledgers.List(ctx, ListFilter{Status: "late"})
	assert.True(t, errors.Is(err, finerr.ErrInvalidInput))
}
