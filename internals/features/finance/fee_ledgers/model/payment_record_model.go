// file: internals/features/finance/fee_ledgers/model/payment_record_model.go
package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- ENUM payment_mode -------------------------------------------------------
type PaymentMode string

const (
	PaymentModeCash        PaymentMode = "cash"
	PaymentModeUPI         PaymentMode = "upi"
	PaymentModeNetBanking  PaymentMode = "net_banking"
	PaymentModeCard        PaymentMode = "card"
	PaymentModeCheque      PaymentMode = "cheque"
	PaymentModeDemandDraft PaymentMode = "demand_draft"
	PaymentModeOnline      PaymentMode = "online" // via payment gateway
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeNetBanking, PaymentModeCard,
		PaymentModeCheque, PaymentModeDemandDraft, PaymentModeOnline:
		return true
	}
	return false
}

// --- ENUM payment_record_status ----------------------------------------------
type PaymentRecordStatus string

const (
	PaymentRecordStatusSuccessful PaymentRecordStatus = "successful"
	PaymentRecordStatusFailed     PaymentRecordStatus = "failed"
)

var (
	ErrPaymentRecordImmutable = errors.New("payment records are append-only")
	ErrFeeLedgerUndeletable   = errors.New("fee ledgers cannot be deleted")
)

// --- MODEL payment_records ---------------------------------------------------
// Append-only. transaction_id unik global (lintas ledger) via unique index.
type PaymentRecord struct {
	PaymentRecordID          uuid.UUID `json:"payment_record_id" gorm:"column:payment_record_id;type:uuid;primaryKey"`
	PaymentRecordFeeLedgerID uuid.UUID `json:"payment_record_fee_ledger_id" gorm:"column:payment_record_fee_ledger_id;type:uuid;not null;uniqueIndex:uq_payment_records_ledger_seq,priority:1"`
	PaymentRecordSeq         int       `json:"payment_record_seq" gorm:"column:payment_record_seq;not null;uniqueIndex:uq_payment_records_ledger_seq,priority:2"`

	PaymentRecordPaymentDate   time.Time           `json:"payment_record_payment_date" gorm:"column:payment_record_payment_date;not null"`
	PaymentRecordAmountPaid    int64               `json:"payment_record_amount_paid" gorm:"column:payment_record_amount_paid;not null"`
	PaymentRecordPaymentMode   PaymentMode         `json:"payment_record_payment_mode" gorm:"column:payment_record_payment_mode;type:varchar(20);not null"`
	PaymentRecordTransactionID string              `json:"payment_record_transaction_id" gorm:"column:payment_record_transaction_id;type:varchar(100);not null;uniqueIndex:uq_payment_records_transaction_id"`
	PaymentRecordReceiptNumber string              `json:"payment_record_receipt_number" gorm:"column:payment_record_receipt_number;type:varchar(100);not null"`
	PaymentRecordStatus        PaymentRecordStatus `json:"payment_record_status" gorm:"column:payment_record_status;type:varchar(20);not null"`

	// Snapshot due setelah pembayaran ini
	PaymentRecordBalanceAfter int64 `json:"payment_record_balance_after" gorm:"column:payment_record_balance_after;not null"`

	// Info gateway (opsional)
	PaymentRecordGateway              *string `json:"payment_record_gateway,omitempty" gorm:"column:payment_record_gateway;type:varchar(40)"`
	PaymentRecordGatewayTransactionID *string `json:"payment_record_gateway_transaction_id,omitempty" gorm:"column:payment_record_gateway_transaction_id;type:varchar(100)"`

	PaymentRecordCreatedAt time.Time `json:"payment_record_created_at" gorm:"column:payment_record_created_at;not null"`
}

func (PaymentRecord) TableName() string { return "payment_records" }

func (m *PaymentRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if m.PaymentRecordID == uuid.Nil {
		m.PaymentRecordID = uuid.New()
	}
	if m.PaymentRecordCreatedAt.IsZero() {
		m.PaymentRecordCreatedAt = time.Now()
	}
	return nil
}

func (m *PaymentRecord) BeforeUpdate(tx *gorm.DB) (err error) { return ErrPaymentRecordImmutable }
func (m *PaymentRecord) BeforeDelete(tx *gorm.DB) (err error) { return ErrPaymentRecordImmutable }

func (m *FeeLedger) BeforeDelete(tx *gorm.DB) (err error) { return ErrFeeLedgerUndeletable }
