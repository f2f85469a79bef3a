// file: internals/features/finance/fee_ledgers/model/fee_ledger_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- ENUM fee_ledger_status --------------------------------------------------
type FeeLedgerStatus string

const (
	FeeLedgerStatusPending       FeeLedgerStatus = "pending"
	FeeLedgerStatusPartiallyPaid FeeLedgerStatus = "partially_paid"
	FeeLedgerStatusPaid          FeeLedgerStatus = "paid"
	FeeLedgerStatusOverdue       FeeLedgerStatus = "overdue"
)

// --- Kategori biaya ----------------------------------------------------------
const (
	FeeCategoryTuition = "tuition"
	FeeCategoryHostel  = "hostel"
	FeeCategoryLibrary = "library"
	FeeCategoryLab     = "lab"
	FeeCategoryOther   = "other"
)

var FeeCategories = []string{FeeCategoryTuition, FeeCategoryHostel, FeeCategoryLibrary, FeeCategoryLab, FeeCategoryOther}

// FeeBreakdown: kategori → nominal (satuan terkecil mata uang).
type FeeBreakdown map[string]int64

func (b FeeBreakdown) Total() int64 {
	var sum int64
	for _, v := range b {
		sum += v
	}
	return sum
}

// --- MODEL fee_ledgers -------------------------------------------------------
// Satu ledger per (student, academic_year, semester).
// Sumber kebenaran: total, penalty, paid. due & status selalu dihitung ulang (lihat service.Recompute).
type FeeLedger struct {
	FeeLedgerID uuid.UUID `json:"fee_ledger_id" gorm:"column:fee_ledger_id;type:uuid;primaryKey"`

	// Identitas term (unik bersama)
	FeeLedgerStudentRef   string `json:"fee_ledger_student_ref" gorm:"column:fee_ledger_student_ref;type:varchar(64);not null;uniqueIndex:uq_fee_ledgers_student_term,priority:1"`
	FeeLedgerAcademicYear string `json:"fee_ledger_academic_year" gorm:"column:fee_ledger_academic_year;type:varchar(20);not null;uniqueIndex:uq_fee_ledgers_student_term,priority:2;index:idx_fee_ledgers_year"`
	FeeLedgerSemester     int    `json:"fee_ledger_semester" gorm:"column:fee_ledger_semester;not null;uniqueIndex:uq_fee_ledgers_student_term,priority:3"`

	// Rincian biaya
	FeeLedgerBreakdown datatypes.JSONType[FeeBreakdown] `json:"fee_ledger_breakdown" gorm:"column:fee_ledger_breakdown;not null"`

	// Nominal
	FeeLedgerTotalAmount   int64 `json:"fee_ledger_total_amount" gorm:"column:fee_ledger_total_amount;not null"`
	FeeLedgerPaidAmount    int64 `json:"fee_ledger_paid_amount" gorm:"column:fee_ledger_paid_amount;not null"`
	FeeLedgerPenaltyAmount int64 `json:"fee_ledger_penalty_amount" gorm:"column:fee_ledger_penalty_amount;not null"`
	FeeLedgerDueAmount     int64 `json:"fee_ledger_due_amount" gorm:"column:fee_ledger_due_amount;not null"`

	FeeLedgerDueDate   time.Time       `json:"fee_ledger_due_date" gorm:"column:fee_ledger_due_date;not null;index:idx_fee_ledgers_due"`
	FeeLedgerStatus    FeeLedgerStatus `json:"fee_ledger_status" gorm:"column:fee_ledger_status;type:varchar(20);not null;index:idx_fee_ledgers_status"`
	FeeLedgerIsOverdue bool            `json:"fee_ledger_is_overdue" gorm:"column:fee_ledger_is_overdue;not null"`

	FeeLedgerPenaltyAppliedAt *time.Time `json:"fee_ledger_penalty_applied_at,omitempty" gorm:"column:fee_ledger_penalty_applied_at"`

	// Versi untuk conditional update (optimistic lock)
	FeeLedgerVersion int64 `json:"fee_ledger_version" gorm:"column:fee_ledger_version;not null"`

	FeeLedgerCreatedAt time.Time `json:"fee_ledger_created_at" gorm:"column:fee_ledger_created_at;not null"`
	FeeLedgerUpdatedAt time.Time `json:"fee_ledger_updated_at" gorm:"column:fee_ledger_updated_at;not null"`

	// History pembayaran (urut seq)
	PaymentHistory []PaymentRecord `json:"payment_history,omitempty" gorm:"foreignKey:PaymentRecordFeeLedgerID;references:FeeLedgerID"`
}

func (FeeLedger) TableName() string { return "fee_ledgers" }

func (m *FeeLedger) Breakdown() FeeBreakdown {
	return m.FeeLedgerBreakdown.Data()
}

func (m *FeeLedger) BeforeCreate(tx *gorm.DB) (err error) {
	if m.FeeLedgerID == uuid.Nil {
		m.FeeLedgerID = uuid.New()
	}
	now := time.Now()
	if m.FeeLedgerCreatedAt.IsZero() {
		m.FeeLedgerCreatedAt = now
	}
	if m.FeeLedgerUpdatedAt.IsZero() {
		m.FeeLedgerUpdatedAt = now
	}
	return nil
}
