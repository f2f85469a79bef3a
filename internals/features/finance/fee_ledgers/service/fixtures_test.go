package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"feeledger_backend/internals/databases/databasetest"
	"feeledger_backend/internals/features/finance/fee_ledgers/model"
	penaltyModel "feeledger_backend/internals/features/finance/penalties/model"
	penaltyService "feeledger_backend/internals/features/finance/penalties/service"
)

// jam tetap untuk semua test di package ini
var testNow = time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type env struct {
	db       *gorm.DB
	ledgers  *LedgerService
	payments *PaymentProcessor
	configs  *penaltyService.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := databasetest.Open(t)
	reg := penaltyService.NewRegistry(db)

	ls := NewLedgerService(db, reg)
	ls.Now = fixedClock
	pp := NewPaymentProcessor(db)
	pp.Now = fixedClock

	return &env{db: db, ledgers: ls, payments: pp, configs: reg}
}

func (e *env) ledger(t *testing.T, student string, breakdown model.FeeBreakdown, due time.Time) *model.FeeLedger {
	t.Helper()
	l, err := e.ledgers.Create(context.Background(), CreateLedgerInput{
		StudentRef:   student,
		AcademicYear: "2024-2025",
		Semester:     1,
		Breakdown:    breakdown,
		DueDate:      due,
	})
	require.NoError(t, err)
	return l
}

func (e *env) config(t *testing.T, cfg penaltyModel.PenaltyConfig) *penaltyModel.PenaltyConfig {
	t.Helper()
	if cfg.PenaltyConfigAcademicYear == "" {
		cfg.PenaltyConfigAcademicYear = "2024-2025"
	}
	cfg.PenaltyConfigIsActive = true
	require.NoError(t, e.configs.Create(context.Background(), &cfg))
	return &cfg
}

// reload membaca ulang ledger langsung dari tabel (tanpa recompute).
func (e *env) reload(t *testing.T, id any) model.FeeLedger {
	t.Helper()
	var l model.FeeLedger
	require.NoError(t, e.db.Take(&l, "fee_ledger_id = ?", id).Error)
	return l
}

func (e *env) records(t *testing.T, ledgerID any) []model.PaymentRecord {
	t.Helper()
	var out []model.PaymentRecord
	require.NoError(t, e.db.Where("payment_record_fee_ledger_id = ?", ledgerID).
		Order("payment_record_seq ASC").Find(&out).Error)
	return out
}

func i64(v int64) *int64 { return &v }
