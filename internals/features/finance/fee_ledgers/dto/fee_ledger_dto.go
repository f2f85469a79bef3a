// file: internals/features/finance/fee_ledgers/dto/fee_ledger_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"feeledger_backend/internals/features/finance/fee_ledgers/model"
	"feeledger_backend/internals/features/finance/fee_ledgers/service"
	"feeledger_backend/internals/features/finance/finerr"
	"feeledger_backend/internals/helpers/dbtime"
)

////////////////////////////////////////////////////////////////////////////////
// FEE LEDGER - DTO
////////////////////////////////////////////////////////////////////////////////

// Create (admin)
type FeeLedgerCreateDTO struct {
	StudentRef   string           `json:"student_ref" validate:"required,notblank,max=64"`
	AcademicYear string           `json:"academic_year" validate:"required,notblank,max=20"`
	Semester     int              `json:"semester" validate:"required,min=1,max=12"`
	FeeBreakdown map[string]int64 `json:"fee_breakdown" validate:"required,min=1"`
	DueDate      string           `json:"due_date" validate:"required"` // YYYY-MM-DD atau RFC3339
}

// ParseDate: lihat dbtime.ParseDate, error dibungkus jadi InvalidInput.
func ParseDate(s string) (time.Time, error) {
	t, err := dbtime.ParseDate(s)
	if err != nil {
		return time.Time{}, finerr.InvalidInput("%s", err.Error())
	}
	return t, nil
}

func (in FeeLedgerCreateDTO) ToInput() (service.CreateLedgerInput, error) {
	due, err := ParseDate(in.DueDate)
	if err != nil {
		return service.CreateLedgerInput{}, err
	}
	return service.CreateLedgerInput{
		StudentRef:   in.StudentRef,
		AcademicYear: in.AcademicYear,
		Semester:     in.Semester,
		Breakdown:    model.FeeBreakdown(in.FeeBreakdown),
		DueDate:      due,
	}, nil
}

// Apply penalty / recompute (admin). as_of kosong = sekarang.
type AsOfRequest struct {
	AsOf string `json:"as_of,omitempty"`
}

func (in AsOfRequest) Resolve(now time.Time) (time.Time, error) {
	t, err := dbtime.ParseDateOr(in.AsOf, now)
	if err != nil {
		return time.Time{}, finerr.InvalidInput("as_of: %s", err.Error())
	}
	return t, nil
}

// Proses pembayaran manual (admin / kasir)
type ProcessPaymentDTO struct {
	Amount        int64  `json:"amount"`
	PaymentMode   string `json:"payment_mode" validate:"required,oneof=cash upi net_banking card cheque demand_draft online"`
	TransactionID string `json:"transaction_id" validate:"required,notblank,max=100"`
	ReceiptNumber string `json:"receipt_number,omitempty" validate:"omitempty,max=100"`
	PaymentDate   string `json:"payment_date,omitempty"`
}

func (in ProcessPaymentDTO) ToInput(ledgerID uuid.UUID) (service.ProcessInput, error) {
	out := service.ProcessInput{
		LedgerID:      ledgerID,
		Amount:        in.Amount,
		Mode:          model.PaymentMode(strings.TrimSpace(in.PaymentMode)),
		TransactionID: in.TransactionID,
		ReceiptNumber: in.ReceiptNumber,
	}
	if strings.TrimSpace(in.PaymentDate) != "" {
		t, err := ParseDate(in.PaymentDate)
		if err != nil {
			return service.ProcessInput{}, err
		}
		out.PaymentDate = &t
	}
	return out, nil
}

// Response
type PaymentRecordResponse struct {
	PaymentRecordID      uuid.UUID `json:"payment_record_id"`
	FeeLedgerID          uuid.UUID `json:"fee_ledger_id"`
	Seq                  int       `json:"seq"`
	PaymentDate          time.Time `json:"payment_date"`
	AmountPaid           int64     `json:"amount_paid"`
	PaymentMode          string    `json:"payment_mode"`
	TransactionID        string    `json:"transaction_id"`
	ReceiptNumber        string    `json:"receipt_number"`
	PaymentStatus        string    `json:"payment_status"`
	BalanceAfterPayment  int64     `json:"balance_after_payment"`
	PaymentGateway       *string   `json:"payment_gateway,omitempty"`
	GatewayTransactionID *string   `json:"gateway_transaction_id,omitempty"`
}

type FeeLedgerResponse struct {
	FeeLedgerID      uuid.UUID               `json:"fee_ledger_id"`
	StudentRef       string                  `json:"student_ref"`
	AcademicYear     string                  `json:"academic_year"`
	Semester         int                     `json:"semester"`
	FeeBreakdown     map[string]int64        `json:"fee_breakdown"`
	TotalAmount      int64                   `json:"total_amount"`
	PaidAmount       int64                   `json:"paid_amount"`
	PenaltyAmount    int64                   `json:"penalty_amount"`
	DueAmount        int64                   `json:"due_amount"`
	DueDate          time.Time               `json:"due_date"`
	Status           string                  `json:"status"`
	IsOverdue        bool                    `json:"is_overdue"`
	PenaltyAppliedAt *time.Time              `json:"penalty_applied_at,omitempty"`
	Version          int64                   `json:"version"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	PaymentHistory   []PaymentRecordResponse `json:"payment_history,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS
////////////////////////////////////////////////////////////////////////////////

func ToPaymentRecordResponse(m model.PaymentRecord) PaymentRecordResponse {
	return PaymentRecordResponse{
		PaymentRecordID:      m.PaymentRecordID,
		FeeLedgerID:          m.PaymentRecordFeeLedgerID,
		Seq:                  m.PaymentRecordSeq,
		PaymentDate:          m.PaymentRecordPaymentDate,
		AmountPaid:           m.PaymentRecordAmountPaid,
		PaymentMode:          string(m.PaymentRecordPaymentMode),
		TransactionID:        m.PaymentRecordTransactionID,
		ReceiptNumber:        m.PaymentRecordReceiptNumber,
		PaymentStatus:        string(m.PaymentRecordStatus),
		BalanceAfterPayment:  m.PaymentRecordBalanceAfter,
		PaymentGateway:       m.PaymentRecordGateway,
		GatewayTransactionID: m.PaymentRecordGatewayTransactionID,
	}
}

func ToPaymentRecordResponses(list []model.PaymentRecord) []PaymentRecordResponse {
	out := make([]PaymentRecordResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToPaymentRecordResponse(m))
	}
	return out
}

func ToFeeLedgerResponse(m model.FeeLedger) FeeLedgerResponse {
	out := FeeLedgerResponse{
		FeeLedgerID:      m.FeeLedgerID,
		StudentRef:       m.FeeLedgerStudentRef,
		AcademicYear:     m.FeeLedgerAcademicYear,
		Semester:         m.FeeLedgerSemester,
		FeeBreakdown:     m.Breakdown(),
		TotalAmount:      m.FeeLedgerTotalAmount,
		PaidAmount:       m.FeeLedgerPaidAmount,
		PenaltyAmount:    m.FeeLedgerPenaltyAmount,
		DueAmount:        m.FeeLedgerDueAmount,
		DueDate:          m.FeeLedgerDueDate,
		Status:           string(m.FeeLedgerStatus),
		IsOverdue:        m.FeeLedgerIsOverdue,
		PenaltyAppliedAt: m.FeeLedgerPenaltyAppliedAt,
		Version:          m.FeeLedgerVersion,
		CreatedAt:        m.FeeLedgerCreatedAt,
		UpdatedAt:        m.FeeLedgerUpdatedAt,
	}
	if len(m.PaymentHistory) > 0 {
		out.PaymentHistory = ToPaymentRecordResponses(m.PaymentHistory)
	}
	return out
}

func ToFeeLedgerResponses(list []model.FeeLedger) []FeeLedgerResponse {
	out := make([]FeeLedgerResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToFeeLedgerResponse(m))
	}
	return out
}

// Hasil proses pembayaran
type PaymentResultResponse struct {
	Payment PaymentRecordResponse `json:"payment"`
	Ledger  FeeLedgerResponse     `json:"ledger"`
}

func ToPaymentResultResponse(r *service.PaymentResult) PaymentResultResponse {
	return PaymentResultResponse{
		Payment: ToPaymentRecordResponse(*r.Record),
		Ledger:  ToFeeLedgerResponse(*r.Ledger),
	}
}
