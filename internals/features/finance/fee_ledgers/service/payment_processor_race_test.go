package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"feeledger_backend/internals/features/finance/fee_ledgers/model"
	"feeledger_backend/internals/features/finance/finerr"
)

// bumpVersionBeforeSave menaikkan fee_ledger_version di dalam tx yang sama,
// tepat sebelum saveLedger, sebanyak n kali. Meniru writer lain yang menang balapan.
func bumpVersionBeforeSave(t *testing.T, db *gorm.DB, n int32) *int32 {
	t.Helper()
	var fired int32
	err := db.Callback().Update().Before("gorm:update").Register("test:bump_fee_ledger_version", func(tx *gorm.DB) {
		if tx.Statement.Table != "fee_ledgers" || atomic.LoadInt32(&fired) >= n {
			return
		}
		atomic.AddInt32(&fired, 1)
		if err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE fee_ledgers SET fee_ledger_version = fee_ledger_version + 1").Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)
	return &fired
}

// hideNextTransactionIDCount: cek duplikat di dalam tx berikutnya melihat 0,
// seolah record pesaing di-commit setelah pengecekan.
func hideNextTransactionIDCount(t *testing.T, db *gorm.DB) {
	t.Helper()
	var used int32
	err := db.Callback().Query().After("gorm:query").Register("test:hide_txid_count", func(tx *gorm.DB) {
		if tx.Statement.Table != "payment_records" ||
			!strings.Contains(tx.Statement.SQL.String(), "payment_record_transaction_id") {
			return
		}
		if n, ok := tx.Statement.Dest.(*int64); ok && atomic.CompareAndSwapInt32(&used, 0, 1) {
			*n = 0
		}
	})
	require.NoError(t, err)
}

func TestProcessRetriesAfterVersionConflict(t *testing.T) {
	e := newEnv(t)
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))
	fired := bumpVersionBeforeSave(t, e.db, 1)

	res, err := e.payments.Process(context.Background(), cash(l.FeeLedgerID, 400, "T-RETRY"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(fired))
	assert.Equal(t, int64(600), res.Record.PaymentRecordBalanceAfter)

	stored := e.reload(t, l.FeeLedgerID)
	assert.Equal(t, int64(400), stored.FeeLedgerPaidAmount)
	assert.Equal(t, int64(600), stored.FeeLedgerDueAmount)
	// percobaan pertama rollback (bump ikut batal), percobaan kedua save biasa
	assert.EqualValues(t, 2, stored.FeeLedgerVersion)
	assert.Len(t, e.records(t, l.FeeLedgerID), 1)
}

func TestProcessGivesUpAfterRepeatedVersionConflicts(t *testing.T) {
	e := newEnv(t)
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))
	fired := bumpVersionBeforeSave(t, e.db, 100)

	_, err := e.payments.Process(context.Background(), cash(l.FeeLedgerID, 400, "T-BUSY"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, finerr.ErrConflict))
	assert.EqualValues(t, maxVersionRetries, atomic.LoadInt32(fired))

	stored := e.reload(t, l.FeeLedgerID)
	assert.Equal(t, int64(0), stored.FeeLedgerPaidAmount)
	assert.EqualValues(t, 1, stored.FeeLedgerVersion)
	assert.Empty(t, e.records(t, l.FeeLedgerID))
}

func TestProcessUniqueIndexCatchesLateDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))
	b := e.ledger(t, "STU-2", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))

	_, err := e.payments.Process(ctx, cash(a.FeeLedgerID, 300, "T-RACE"))
	require.NoError(t, err)

	hideNextTransactionIDCount(t, e.db)
	_, err = e.payments.Process(ctx, cash(b.FeeLedgerID, 300, "T-RACE"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, finerr.ErrDuplicateTransaction), err.Error())

	stored := e.reload(t, b.FeeLedgerID)
	assert.Equal(t, int64(0), stored.FeeLedgerPaidAmount)
	assert.EqualValues(t, 1, stored.FeeLedgerVersion)
	assert.Empty(t, e.records(t, b.FeeLedgerID))

	var n int64
	require.NoError(t, e.db.Model(&model.PaymentRecord{}).
		Where("payment_record_transaction_id = ?", "T-RACE").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestProcessConcurrentSameTransactionIDAcrossLedgers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ledgers := []*model.FeeLedger{
		e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5)),
		e.ledger(t, "STU-2", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5)),
	}

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(l *model.FeeLedger) {
			defer wg.Done()
			_, err := e.payments.Process(ctx, cash(l.FeeLedgerID, 250, "T-SAME"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, finerr.ErrDuplicateTransaction):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(ledgers[i%2])
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dups)

	paid := e.reload(t, ledgers[0].FeeLedgerID).FeeLedgerPaidAmount + e.reload(t, ledgers[1].FeeLedgerID).FeeLedgerPaidAmount
	assert.Equal(t, int64(250), paid)
	assert.Len(t, append(e.records(t, ledgers[0].FeeLedgerID), e.records(t, ledgers[1].FeeLedgerID)...), 1)
}
