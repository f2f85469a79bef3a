package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeledger_backend/internals/features/finance/fee_ledgers/model"
	"feeledger_backend/internals/features/finance/finerr"
)

func cash(ledgerID uuid.UUID, amount int64, txID string) ProcessInput {
	return ProcessInput{LedgerID: ledgerID, Amount: amount, Mode: model.PaymentModeCash, TransactionID: txID}
}

func TestProcessRejectsOverpayment(t *testing.T) {
	e := newEnv(t)
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))

	_, err := e.payments.Process(context.Background(), cash(l.FeeLedgerID, 1500, "T-OVER"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, finerr.ErrOverpayment))

	var fe *finerr.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, int64(1000), fe.Details()["due_amount"])

	stored := e.reload(t, l.FeeLedgerID)
	assert.Equal(t, int64(0), stored.FeeLedgerPaidAmount)
	assert.Equal(t, int64(1000), stored.FeeLedgerDueAmount)
	assert.EqualValues(t, 1, stored.FeeLedgerVersion)
	assert.Empty(t, e.records(t, l.FeeLedgerID))
}

func TestProcessFullPaymentAndDuplicate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))
	other := e.ledger(t, "STU-2", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))

	res, err := e.payments.Process(ctx, cash(l.FeeLedgerID, 1000, "T1"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Ledger.FeeLedgerDueAmount)
	assert.Equal(t, model.FeeLedgerStatusPaid, res.Ledger.FeeLedgerStatus)
	assert.Equal(t, int64(0), res.Record.PaymentRecordBalanceAfter)
	assert.Equal(t, 1, res.Record.PaymentRecordSeq)
	assert.NotEqual(t, uuid.Nil, res.Record.PaymentRecordID)
	assert.True(t, strings.HasPrefix(res.Record.PaymentRecordReceiptNumber, "RCPT-20250120-"))
	assert.Equal(t, model.PaymentRecordStatusSuccessful, res.Record.PaymentRecordStatus)

	_, err = e.payments.Process(ctx, cash(l.FeeLedgerID, 1, "T1"))
	assert.True(t, errors.Is(err, finerr.ErrDuplicateTransaction))

	_, err = e.payments.Process(ctx, cash(other.FeeLedgerID, 500, "T1"))
	assert.True(t, errors.Is(err, finerr.ErrDuplicateTransaction))
	assert.Equal(t, int64(0), e.reload(t, other.FeeLedgerID).FeeLedgerPaidAmount)
}

func TestProcessRejectsInvalidInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))

	for _, amount := range []int64{0, -50} {
		_, err := e.payments.Process(ctx, cash(l.FeeLedgerID, amount, "T-BAD"))
		assert.True(t, errors.Is(err, finerr.ErrInvalidAmount), "amount %d", amount)
	}

	in := cash(l.FeeLedgerID, 100, "T-MODE")
	in.Mode = "barter"
	_, err := e.payments.Process(ctx, in)
	assert.True(t, errors.Is(err, finerr.ErrInvalidInput))

	_, err = e.payments.Process(ctx, cash(l.FeeLedgerID, 100, "   "))
	assert.True(t, errors.Is(err, finerr.ErrInvalidInput))

	_, err = e.payments.Process(ctx, cash(uuid.New(), 100, "T-MISSING"))
	assert.True(t, errors.Is(err, finerr.ErrNotFound))

	assert.Empty(t, e.records(t, l.FeeLedgerID))
}

func TestProcessPartialPaymentsKeepHistoryConsistent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 800, "lab": 200}, testNow.AddDate(0, 0, 5))

	in := cash(l.FeeLedgerID, 300, "T-A")
	in.Gateway = &GatewayInfo{Name: "hosted", TransactionID: "G-1"}
	in.Mode = model.PaymentModeOnline
	in.ReceiptNumber = "R-001"

	res, err := e.payments.Process(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, model.FeeLedgerStatusPartiallyPaid, res.Ledger.FeeLedgerStatus)
	assert.Equal(t, "R-001", res.Record.PaymentRecordReceiptNumber)
	require.NotNil(t, res.Record.PaymentRecordGateway)
	assert.Equal(t, "hosted", *res.Record.PaymentRecordGateway)

	_, err = e.payments.Process(ctx, cash(l.FeeLedgerID, 450, "T-B"))
	require.NoError(t, err)
	res, err = e.payments.Process(ctx, cash(l.FeeLedgerID, 250, "T-C"))
	require.NoError(t, err)
	assert.Equal(t, model.FeeLedgerStatusPaid, res.Ledger.FeeLedgerStatus)

	recs := e.records(t, l.FeeLedgerID)
	require.Len(t, recs, 3)
	var sum int64
	for i, r := range recs {
		assert.Equal(t, i+1, r.PaymentRecordSeq)
		sum += r.PaymentRecordAmountPaid
	}
	assert.Equal(t, []int64{700, 250, 0}, []int64{
		recs[0].PaymentRecordBalanceAfter, recs[1].PaymentRecordBalanceAfter, recs[2].PaymentRecordBalanceAfter,
	})

	stored := e.reload(t, l.FeeLedgerID)
	assert.Equal(t, sum, stored.FeeLedgerPaidAmount)
	assert.EqualValues(t, 4, stored.FeeLedgerVersion)

	hist, err := e.ledgers.History(ctx, l.FeeLedgerID)
	require.NoError(t, err)
	assert.Len(t, hist, 3)
}

func TestProcessConcurrentPaymentsNeverOverpay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.ledger(t, "STU-1", model.FeeBreakdown{"tuition": 1000}, testNow.AddDate(0, 0, 5))

	const workers = 12
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		ok, overpay int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.payments.Process(ctx, cash(l.FeeLedgerID, 100, fmt.Sprintf("T-%02d", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, finerr.ErrOverpayment):
				overpay++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 2, overpay)

	stored := e.reload(t, l.FeeLedgerID)
	assert.Equal(t, int64(1000), stored.FeeLedgerPaidAmount)
	assert.Equal(t, int64(0), stored.FeeLedgerDueAmount)
	assert.Len(t, e.records(t, l.FeeLedgerID), 10)
}
