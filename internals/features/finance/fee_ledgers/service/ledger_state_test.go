package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"feeledger_backend/internals/features/finance/fee_ledgers/model"
)

var (
	dueDate = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	before  = dueDate.Add(-48 * time.Hour)
	after   = dueDate.Add(48 * time.Hour)
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name                 string
		total, penalty, paid int64
		now                  time.Time
		want                 model.FeeLedgerStatus
	}{
		{"nothing paid before due", 1000, 0, 0, before, model.FeeLedgerStatusPending},
		{"nothing paid after due", 1000, 0, 0, after, model.FeeLedgerStatusOverdue},
		{"partial before due", 1000, 0, 400, before, model.FeeLedgerStatusPartiallyPaid},
		{"partial wins over overdue", 1000, 0, 400, after, model.FeeLedgerStatusPartiallyPaid},
		{"fully paid", 1000, 0, 1000, after, model.FeeLedgerStatusPaid},
		{"paid total but penalty left", 1000, 200, 1000, after, model.FeeLedgerStatusPartiallyPaid},
		{"zero total never paid", 0, 0, 0, before, model.FeeLedgerStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.total, tc.penalty, tc.paid, dueDate, tc.now))
		})
	}
}

func TestDueAmountNeverNegative(t *testing.T) {
	assert.Equal(t, int64(1200), DueAmount(1000, 200, 0))
	assert.Equal(t, int64(0), DueAmount(1000, 0, 1000))
	assert.Equal(t, int64(0), DueAmount(1000, 0, 1500))
}

func TestDaysOverdue(t *testing.T) {
	assert.Equal(t, 0, DaysOverdue(dueDate, before))
	assert.Equal(t, 0, DaysOverdue(dueDate, dueDate))
	assert.Equal(t, 0, DaysOverdue(dueDate, dueDate.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysOverdue(dueDate, dueDate.Add(25*time.Hour)))
	assert.Equal(t, 10, DaysOverdue(dueDate, dueDate.AddDate(0, 0, 10)))
}

func TestRecordPaymentRecomputes(t *testing.T) {
	l := &model.FeeLedger{FeeLedgerTotalAmount: 1000, FeeLedgerDueDate: dueDate}
	Recompute(l, before)
	assert.Equal(t, int64(1000), l.FeeLedgerDueAmount)

	recordPayment(l, model.PaymentRecord{PaymentRecordAmountPaid: 600}, before)
	assert.Equal(t, int64(400), l.FeeLedgerDueAmount)
	assert.Equal(t, model.FeeLedgerStatusPartiallyPaid, l.FeeLedgerStatus)
	assert.Len(t, l.PaymentHistory, 1)

	recordPayment(l, model.PaymentRecord{PaymentRecordAmountPaid: 400}, after)
	assert.Equal(t, int64(0), l.FeeLedgerDueAmount)
	assert.Equal(t, model.FeeLedgerStatusPaid, l.FeeLedgerStatus)
}

func TestSetPenaltyReplacesAndFloors(t *testing.T) {
	l := &model.FeeLedger{FeeLedgerTotalAmount: 15000, FeeLedgerDueDate: dueDate}

	setPenalty(l, 350, after, after)
	assert.Equal(t, int64(350), l.FeeLedgerPenaltyAmount)
	assert.Equal(t, int64(15350), l.FeeLedgerDueAmount)
	assert.True(t, l.FeeLedgerIsOverdue)
	assert.Equal(t, model.FeeLedgerStatusOverdue, l.FeeLedgerStatus)

	// replace, bukan akumulasi
	setPenalty(l, 300, after, after)
	assert.Equal(t, int64(300), l.FeeLedgerPenaltyAmount)
	assert.Equal(t, int64(15300), l.FeeLedgerDueAmount)

	// paid sudah melewati total: penalty tidak boleh turun di bawah paid - total
	l.FeeLedgerPaidAmount = 15200
	setPenalty(l, 100, after, after)
	assert.Equal(t, int64(200), l.FeeLedgerPenaltyAmount)
	assert.Equal(t, int64(0), l.FeeLedgerDueAmount)
	assert.Equal(t, model.FeeLedgerStatusPaid, l.FeeLedgerStatus)
}
