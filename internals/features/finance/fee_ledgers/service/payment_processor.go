// file: internals/features/finance/fee_ledgers/service/payment_processor.go
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"feeledger_backend/internals/features/finance/fee_ledgers/model"
	"feeledger_backend/internals/features/finance/finerr"
	helper "feeledger_backend/internals/helpers"
	"feeledger_backend/internals/metrics"
)

type PaymentProcessor struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewPaymentProcessor(db *gorm.DB) *PaymentProcessor {
	return &PaymentProcessor{DB: db, Now: time.Now}
}

func (p *PaymentProcessor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// GatewayInfo diisi kalau pembayaran datang dari callback gateway.
type GatewayInfo struct {
	Name          string
	TransactionID string
}

type ProcessInput struct {
	LedgerID      uuid.UUID
	Amount        int64
	Mode          model.PaymentMode
	TransactionID string
	ReceiptNumber string
	PaymentDate   *time.Time
	Gateway       *GatewayInfo
}

type PaymentResult struct {
	Record *model.PaymentRecord
	Ledger *model.FeeLedger
}

var errRecordInsertConflict = errors.New("payment record unique conflict")

// GenReceiptNumber: RCPT-YYYYMMDD-<8 hex>.
func GenReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCPT-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// Process menerapkan satu pembayaran ke ledger secara atomik.
// Urutan cek: amount → input → ledger → transaction_id duplikat → overpayment.
func (p *PaymentProcessor) Process(ctx context.Context, in ProcessInput) (*PaymentResult, error) {
	mode := string(in.Mode)
	if in.Amount <= 0 {
		metrics.PaymentsTotal.WithLabelValues("invalid", mode).Inc()
		return nil, finerr.InvalidAmount("payment amount must be positive, got %d", in.Amount)
	}
	if !in.Mode.Valid() {
		metrics.PaymentsTotal.WithLabelValues("invalid", mode).Inc()
		return nil, finerr.InvalidInput("unknown payment mode %q", in.Mode)
	}
	in.TransactionID = strings.TrimSpace(in.TransactionID)
	if in.TransactionID == "" {
		metrics.PaymentsTotal.WithLabelValues("invalid", mode).Inc()
		return nil, finerr.InvalidInput("transaction id is required")
	}
	in.ReceiptNumber = strings.TrimSpace(in.ReceiptNumber)
	if in.ReceiptNumber == "" {
		in.ReceiptNumber = GenReceiptNumber(p.now())
	}

	var out PaymentResult
	err := withVersionRetry(ctx, func() error {
		return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res, err := p.processTx(ctx, tx, in)
			if err != nil {
				return err
			}
			out = *res
			return nil
		})
	})

	if errors.Is(err, errRecordInsertConflict) {
		// transaksi sudah rollback; cek ulang di luar tx
		var n int64
		if cErr := p.DB.WithContext(ctx).Model(&model.PaymentRecord{}).
			Where("payment_record_transaction_id = ?", in.TransactionID).
			Count(&n).Error; cErr == nil && n > 0 {
			err = finerr.DuplicateTransaction(in.TransactionID)
		} else {
			err = finerr.Conflict("payment for ledger %s collided with a concurrent write, please retry", in.LedgerID)
		}
	}

	if err != nil {
		metrics.PaymentsTotal.WithLabelValues(paymentResultLabel(err), mode).Inc()
		return nil, err
	}

	metrics.PaymentsTotal.WithLabelValues("applied", mode).Inc()
	metrics.PaymentAmountTotal.WithLabelValues(mode).Add(float64(in.Amount))
	log.Printf("[PAYMENT] applied ledger=%s tx=%s amount=%d mode=%s balance_after=%d status=%s",
		in.LedgerID, in.TransactionID, in.Amount, mode,
		out.Record.PaymentRecordBalanceAfter, out.Ledger.FeeLedgerStatus)
	return &out, nil
}

func (p *PaymentProcessor) processTx(ctx context.Context, tx *gorm.DB, in ProcessInput) (*PaymentResult, error) {
	l, err := lockLedger(ctx, tx, in.LedgerID)
	if err != nil {
		return nil, err
	}

	var dup int64
	if err := tx.Model(&model.PaymentRecord{}).
		Where("payment_record_transaction_id = ?", in.TransactionID).
		Count(&dup).Error; err != nil {
		return nil, errors.Wrap(err, "check transaction id")
	}
	if dup > 0 {
		return nil, finerr.DuplicateTransaction(in.TransactionID)
	}

	now := p.now()
	Recompute(l, now)
	if in.Amount > l.FeeLedgerDueAmount {
		return nil, finerr.Overpayment(in.Amount, l.FeeLedgerDueAmount)
	}

	var count int64
	if err := tx.Model(&model.PaymentRecord{}).
		Where("payment_record_fee_ledger_id = ?", l.FeeLedgerID).
		Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "count payment history")
	}

	payDate := now
	if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
		payDate = *in.PaymentDate
	}
	rec := model.PaymentRecord{
		PaymentRecordFeeLedgerID:   l.FeeLedgerID,
		PaymentRecordSeq:           int(count) + 1,
		PaymentRecordPaymentDate:   payDate.UTC(),
		PaymentRecordAmountPaid:    in.Amount,
		PaymentRecordPaymentMode:   in.Mode,
		PaymentRecordTransactionID: in.TransactionID,
		PaymentRecordReceiptNumber: in.ReceiptNumber,
		PaymentRecordStatus:        model.PaymentRecordStatusSuccessful,
		PaymentRecordBalanceAfter:  l.FeeLedgerDueAmount - in.Amount,
		PaymentRecordCreatedAt:     now,
	}
	if in.Gateway != nil {
		name := in.Gateway.Name
		rec.PaymentRecordGateway = &name
		if gtx := strings.TrimSpace(in.Gateway.TransactionID); gtx != "" {
			rec.PaymentRecordGatewayTransactionID = &gtx
		}
	}

	recordPayment(l, rec, now)
	if l.FeeLedgerDueAmount != rec.PaymentRecordBalanceAfter {
		return nil, errors.Errorf("ledger %s: due %d does not match balance_after %d",
			l.FeeLedgerID, l.FeeLedgerDueAmount, rec.PaymentRecordBalanceAfter)
	}

	if err := saveLedger(ctx, tx, l, now); err != nil {
		return nil, err
	}
	if err := tx.Create(&rec).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, errRecordInsertConflict
		}
		return nil, errors.Wrap(err, "insert payment record")
	}
	l.PaymentHistory[len(l.PaymentHistory)-1] = rec
	return &PaymentResult{Record: &rec, Ledger: l}, nil
}

func paymentResultLabel(err error) string {
	switch {
	case errors.Is(err, finerr.ErrDuplicateTransaction):
		return "duplicate"
	case errors.Is(err, finerr.ErrOverpayment):
		return "overpayment"
	case errors.Is(err, finerr.ErrNotFound):
		return "not_found"
	case errors.Is(err, finerr.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
