// file: internals/features/finance/fee_ledgers/service/ledger_state.go
package service

import (
	"time"

	"feeledger_backend/internals/features/finance/fee_ledgers/model"
)

const day = 24 * time.Hour

// DueAmount = max(0, total + penalty − paid). Satu-satunya rumus due di codebase.
func DueAmount(total, penalty, paid int64) int64 {
	due := total + penalty - paid
	if due < 0 {
		return 0
	}
	return due
}

// DeriveStatus: urutan cek paid → partially_paid → overdue → pending.
func DeriveStatus(total, penalty, paid int64, dueDate, now time.Time) model.FeeLedgerStatus {
	due := DueAmount(total, penalty, paid)
	switch {
	case due == 0 && paid > 0:
		return model.FeeLedgerStatusPaid
	case paid > 0 && paid < total+penalty:
		return model.FeeLedgerStatusPartiallyPaid
	case due > 0 && now.After(dueDate):
		return model.FeeLedgerStatusOverdue
	default:
		return model.FeeLedgerStatusPending
	}
}

// Recompute membangun ulang due & status dari tiga input. Dipanggil oleh semua mutator.
func Recompute(l *model.FeeLedger, now time.Time) {
	l.FeeLedgerDueAmount = DueAmount(l.FeeLedgerTotalAmount, l.FeeLedgerPenaltyAmount, l.FeeLedgerPaidAmount)
	l.FeeLedgerStatus = DeriveStatus(l.FeeLedgerTotalAmount, l.FeeLedgerPenaltyAmount, l.FeeLedgerPaidAmount, l.FeeLedgerDueDate, now)
}

// DaysOverdue: selisih hari penuh (dibulatkan ke bawah). <= 0 berarti belum jatuh tempo.
func DaysOverdue(dueDate, asOf time.Time) int {
	d := asOf.Sub(dueDate)
	if d <= 0 {
		return 0
	}
	return int(d / day)
}

// recordPayment: tambah paid + append history, lalu recompute.
// Hanya dipanggil PaymentProcessor di dalam transaksi yang sudah mengunci ledger.
func recordPayment(l *model.FeeLedger, rec model.PaymentRecord, now time.Time) {
	l.FeeLedgerPaidAmount += rec.PaymentRecordAmountPaid
	l.PaymentHistory = append(l.PaymentHistory, rec)
	Recompute(l, now)
}

// setPenalty mengganti (bukan menambah) penalty. total + penalty tidak pernah di bawah paid.
func setPenalty(l *model.FeeLedger, penalty int64, asOf, now time.Time) {
	if floor := l.FeeLedgerPaidAmount - l.FeeLedgerTotalAmount; penalty < floor {
		penalty = floor
	}
	if penalty < 0 {
		penalty = 0
	}
	l.FeeLedgerPenaltyAmount = penalty
	l.FeeLedgerIsOverdue = true
	at := asOf
	l.FeeLedgerPenaltyAppliedAt = &at
	Recompute(l, now)
}
