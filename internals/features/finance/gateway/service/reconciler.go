// file: internals/features/finance/gateway/service/reconciler.go
package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	ledgerModel "feeledger_backend/internals/features/finance/fee_ledgers/model"
	ledgerService "feeledger_backend/internals/features/finance/fee_ledgers/service"
	"feeledger_backend/internals/features/finance/finerr"
	"feeledger_backend/internals/features/finance/gateway/model"
	"feeledger_backend/internals/helpers/reporting"
	"feeledger_backend/internals/metrics"
)

const StatusSuccess = "SUCCESS"

// Hasil acknowledgement callback
const (
	AckApplied        = "applied"
	AckAlreadyApplied = "already_applied"
	AckIgnored        = "ignored"
)

// InitiatePayload: urutan field = urutan canonical JSON.
type InitiatePayload struct {
	MerchantID  string `json:"merchantId"`
	OrderID     string `json:"orderId"`
	FeeID       string `json:"feeId"`
	StudentID   string `json:"studentId"`
	Amount      int64  `json:"amount"`
	RedirectURL string `json:"redirectUrl"`
}

// CallbackPayload: field minimum callback. Gateway boleh kirim field lain;
// checksum selalu atas byte mentah, bukan struct ini.
type CallbackPayload struct {
	FeeID                string `json:"feeId"`
	StudentID            string `json:"studentId"`
	Amount               int64  `json:"amount"`
	Status               string `json:"status"`
	TransactionID        string `json:"transactionId"`
	ReceiptNumber        string `json:"receiptNumber"`
	GatewayTransactionID string `json:"gatewayTransactionId,omitempty"`
}

type InitiateInput struct {
	StudentID   string
	FeeID       uuid.UUID
	Amount      int64
	RedirectURL string
}

type InitiateResult struct {
	PaymentURL string          `json:"payment_url"`
	Payload    InitiatePayload `json:"payload"`
	// SignedPayload: byte persis yang di-HMAC; checksum diverifikasi terhadap ini, bukan Payload.
	SignedPayload string `json:"signed_payload"`
	Checksum      string `json:"checksum"`
}

type Acknowledgement struct {
	Result          string                      `json:"result"`
	FeeID           string                      `json:"fee_id"`
	TransactionID   string                      `json:"transaction_id"`
	PaymentRecordID *uuid.UUID                  `json:"payment_record_id,omitempty"`
	BalanceAfter    *int64                      `json:"balance_after,omitempty"`
	LedgerStatus    ledgerModel.FeeLedgerStatus `json:"ledger_status,omitempty"`
}

type Reconciler struct {
	DB         *gorm.DB
	Processor  *ledgerService.PaymentProcessor
	Provider   PaymentURLProvider
	Secret     []byte
	MerchantID string
	Now        func() time.Time
}

func NewReconciler(db *gorm.DB, processor *ledgerService.PaymentProcessor, provider PaymentURLProvider, secret, merchantID string) *Reconciler {
	return &Reconciler{
		DB:         db,
		Processor:  processor,
		Provider:   provider,
		Secret:     []byte(secret),
		MerchantID: merchantID,
		Now:        time.Now,
	}
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reconciler) providerName() string {
	if r.Provider == nil {
		return "gateway"
	}
	return r.Provider.Name()
}

// loadLedgerForStudent: ledger milik student lain diperlakukan sama dengan tidak ada.
func (r *Reconciler) loadLedgerForStudent(ctx context.Context, feeID uuid.UUID, studentID string) (*ledgerModel.FeeLedger, error) {
	var l ledgerModel.FeeLedger
	if err := r.DB.WithContext(ctx).Take(&l, "fee_ledger_id = ?", feeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, finerr.NotFound("fee ledger %s not found", feeID)
		}
		return nil, errors.Wrap(err, "load fee ledger")
	}
	if l.FeeLedgerStudentRef != strings.TrimSpace(studentID) {
		return nil, finerr.NotFound("fee ledger %s not found", feeID)
	}
	ledgerService.Recompute(&l, r.now())
	return &l, nil
}

/* =======================================================
   INITIATE (advisory, tanpa mutasi ledger)
======================================================= */

func (r *Reconciler) Initiate(ctx context.Context, in InitiateInput) (*InitiateResult, error) {
	if in.Amount <= 0 {
		return nil, finerr.InvalidAmount("payment amount must be positive, got %d", in.Amount)
	}
	if strings.TrimSpace(in.StudentID) == "" {
		return nil, finerr.InvalidInput("student id is required")
	}
	if len(r.Secret) == 0 {
		return nil, errors.New("gateway secret is not configured")
	}

	l, err := r.loadLedgerForStudent(ctx, in.FeeID, in.StudentID)
	if err != nil {
		return nil, err
	}
	if in.Amount > l.FeeLedgerDueAmount {
		return nil, finerr.ExceedsDue(in.Amount, l.FeeLedgerDueAmount)
	}

	payload := InitiatePayload{
		MerchantID:  r.MerchantID,
		OrderID:     GenOrderID("FEE", r.now()),
		FeeID:       l.FeeLedgerID.String(),
		StudentID:   l.FeeLedgerStudentRef,
		Amount:      in.Amount,
		RedirectURL: strings.TrimSpace(in.RedirectURL),
	}
	signed, err := CanonicalJSON(payload)
	if err != nil {
		return nil, err
	}
	checksum := SignRaw(r.Secret, signed)

	var paymentURL string
	if r.Provider != nil {
		paymentURL, err = r.Provider.PaymentURL(ctx, payload)
		if err != nil {
			return nil, errors.Wrap(err, "build payment url")
		}
	}

	log.Printf("[GATEWAY] initiate order=%s ledger=%s amount=%d due=%d", payload.OrderID, payload.FeeID, payload.Amount, l.FeeLedgerDueAmount)
	return &InitiateResult{PaymentURL: paymentURL, Payload: payload, SignedPayload: string(signed), Checksum: checksum}, nil
}

/* =======================================================
   CALLBACK
======================================================= */

// Callback memproses notifikasi gateway. raw = payload persis seperti dikirim;
// checksum dihitung atas raw, payload baru dipercaya setelah lolos.
func (r *Reconciler) Callback(ctx context.Context, raw []byte, checksum string) (*Acknowledgement, error) {
	// decode awal hanya untuk kolom event log
	var p CallbackPayload
	decodeErr := sonic.Unmarshal(raw, &p)
	ev := r.recordEvent(ctx, raw, p, checksum)

	if !VerifyRaw(r.Secret, raw, checksum) {
		err := finerr.ChecksumMismatch()
		r.finishEvent(ctx, ev, model.GatewayEventStatusRejected, err)
		metrics.GatewayCallbacksTotal.WithLabelValues("rejected").Inc()
		reporting.Warning("gateway callback checksum mismatch", map[string]interface{}{
			"fee_id":         p.FeeID,
			"transaction_id": p.TransactionID,
			"provider":       r.providerName(),
		})
		return nil, err
	}
	if decodeErr != nil {
		return nil, r.fail(ctx, ev, finerr.InvalidInput("invalid callback payload: %v", decodeErr))
	}

	ack := &Acknowledgement{FeeID: p.FeeID, TransactionID: p.TransactionID}

	if strings.ToUpper(strings.TrimSpace(p.Status)) != StatusSuccess {
		ack.Result = AckIgnored
		r.finishEvent(ctx, ev, model.GatewayEventStatusIgnored, nil)
		metrics.GatewayCallbacksTotal.WithLabelValues(AckIgnored).Inc()
		log.Printf("[GATEWAY] callback ignored tx=%s status=%s", p.TransactionID, p.Status)
		return ack, nil
	}

	feeID, err := uuid.Parse(strings.TrimSpace(p.FeeID))
	if err != nil {
		return nil, r.fail(ctx, ev, finerr.InvalidInput("invalid feeId %q", p.FeeID))
	}
	if _, err := r.loadLedgerForStudent(ctx, feeID, p.StudentID); err != nil {
		return nil, r.fail(ctx, ev, err)
	}

	res, err := r.Processor.Process(ctx, ledgerService.ProcessInput{
		LedgerID:      feeID,
		Amount:        p.Amount,
		Mode:          ledgerModel.PaymentModeOnline,
		TransactionID: p.TransactionID,
		ReceiptNumber: p.ReceiptNumber,
		Gateway: &ledgerService.GatewayInfo{
			Name:          r.providerName(),
			TransactionID: p.GatewayTransactionID,
		},
	})
	if err != nil {
		if errors.Is(err, finerr.ErrDuplicateTransaction) {
			return r.alreadyApplied(ctx, ev, ack, feeID, err)
		}
		return nil, r.fail(ctx, ev, err)
	}

	ack.Result = AckApplied
	ack.PaymentRecordID = &res.Record.PaymentRecordID
	ack.BalanceAfter = &res.Record.PaymentRecordBalanceAfter
	ack.LedgerStatus = res.Ledger.FeeLedgerStatus
	r.finishEvent(ctx, ev, model.GatewayEventStatusApplied, nil)
	metrics.GatewayCallbacksTotal.WithLabelValues(AckApplied).Inc()
	return ack, nil
}

// alreadyApplied: replay callback untuk ledger yang sama → ack; tx id milik ledger lain tetap error.
func (r *Reconciler) alreadyApplied(ctx context.Context, ev *model.GatewayEvent, ack *Acknowledgement, feeID uuid.UUID, dupErr error) (*Acknowledgement, error) {
	var rec ledgerModel.PaymentRecord
	err := r.DB.WithContext(ctx).
		Where("payment_record_transaction_id = ?", strings.TrimSpace(ack.TransactionID)).
		Take(&rec).Error
	if err != nil || rec.PaymentRecordFeeLedgerID != feeID {
		return nil, r.fail(ctx, ev, dupErr)
	}

	ack.Result = AckAlreadyApplied
	ack.PaymentRecordID = &rec.PaymentRecordID
	ack.BalanceAfter = &rec.PaymentRecordBalanceAfter
	r.finishEvent(ctx, ev, model.GatewayEventStatusAlreadyApplied, nil)
	metrics.GatewayCallbacksTotal.WithLabelValues(AckAlreadyApplied).Inc()
	log.Printf("[GATEWAY] callback replay tx=%s ledger=%s", ack.TransactionID, feeID)
	return ack, nil
}

func (r *Reconciler) fail(ctx context.Context, ev *model.GatewayEvent, err error) error {
	r.finishEvent(ctx, ev, model.GatewayEventStatusFailed, err)
	metrics.GatewayCallbacksTotal.WithLabelValues("error").Inc()
	log.Printf("[GATEWAY] callback failed: %v", err)
	return err
}

/* =======================================================
   EVENT LOG (best-effort, tidak menggagalkan callback)
======================================================= */

func (r *Reconciler) recordEvent(ctx context.Context, raw []byte, p CallbackPayload, checksum string) *model.GatewayEvent {
	stored := datatypes.JSON(raw)
	if !sonic.Valid(raw) {
		stored = datatypes.JSON("{}")
	}
	ev := &model.GatewayEvent{
		GatewayEventProvider:   r.providerName(),
		GatewayEventType:       "callback",
		GatewayEventPayload:    stored,
		GatewayEventStatus:     model.GatewayEventStatusReceived,
		GatewayEventReceivedAt: r.now(),
	}
	if id, err := uuid.Parse(strings.TrimSpace(p.FeeID)); err == nil {
		ev.GatewayEventFeeLedgerID = &id
	}
	if v := strings.TrimSpace(p.TransactionID); v != "" {
		ev.GatewayEventTransactionID = &v
	}
	if v := strings.TrimSpace(p.Status); v != "" {
		ev.GatewayEventPayloadStatus = &v
	}
	if v := strings.TrimSpace(checksum); v != "" {
		ev.GatewayEventChecksum = &v
	}
	if err := r.DB.WithContext(ctx).Create(ev).Error; err != nil {
		log.Printf("[GATEWAY] gagal simpan event: %v", err)
		return nil
	}
	return ev
}

func (r *Reconciler) finishEvent(ctx context.Context, ev *model.GatewayEvent, status model.GatewayEventStatus, cause error) {
	if ev == nil {
		return
	}
	now := r.now()
	upd := map[string]any{
		"gateway_event_status":       status,
		"gateway_event_processed_at": now,
	}
	if cause != nil {
		upd["gateway_event_error"] = cause.Error()
	}
	if err := r.DB.WithContext(ctx).Model(&model.GatewayEvent{}).
		Where("gateway_event_id = ?", ev.GatewayEventID).
		Updates(upd).Error; err != nil {
		log.Printf("[GATEWAY] gagal update event %s: %v", ev.GatewayEventID, err)
		return
	}
	ev.GatewayEventStatus = status
	ev.GatewayEventProcessedAt = &now
}

/* =======================================================
   EVENT QUERY
======================================================= */

type EventFilter struct {
	Status        string
	FeeLedgerID   *uuid.UUID
	TransactionID string
	Start, End    *time.Time
	Limit, Offset int
}

func (r *Reconciler) ListEvents(ctx context.Context, f EventFilter) ([]model.GatewayEvent, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.GatewayEvent{})
	if v := strings.TrimSpace(f.Status); v != "" {
		q = q.Where("gateway_event_status = ?", strings.ToLower(v))
	}
	if f.FeeLedgerID != nil {
		q = q.Where("gateway_event_fee_ledger_id = ?", *f.FeeLedgerID)
	}
	if v := strings.TrimSpace(f.TransactionID); v != "" {
		q = q.Where("gateway_event_transaction_id = ?", v)
	}
	if f.Start != nil {
		q = q.Where("gateway_event_received_at >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("gateway_event_received_at < ?", *f.End)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count gateway events")
	}
	var rows []model.GatewayEvent
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Order("gateway_event_received_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list gateway events")
	}
	return rows, total, nil
}
