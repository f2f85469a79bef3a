// file: internals/features/finance/gateway/dto/gateway_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"feeledger_backend/internals/features/finance/gateway/model"
)

// POST /gateway/initiate (student)
type InitiateRequest struct {
	FeeID       string `json:"fee_id" validate:"required,uuid"`
	Amount      int64  `json:"amount"`
	RedirectURL string `json:"redirect_url" validate:"omitempty,url,max=500"`
}

// POST /gateway/callback (public). Body: {"payload": {...}, "checksum": "..."}.
// Checksum boleh juga di header X-Checksum. Payload disimpan sebagai byte mentah (dasar HMAC).
type CallbackRequest struct {
	Payload  []byte
	Checksum string
}

// ParseCallbackRequest mengambil "payload" apa adanya dari body (tanpa decode/encode ulang).
// Payload berupa string JSON (di-stringify gateway) dibuka satu lapis.
func ParseCallbackRequest(body []byte) (CallbackRequest, error) {
	var out CallbackRequest
	node, err := sonic.Get(body, "payload")
	if err != nil {
		return out, errors.Wrap(err, "callback payload")
	}
	raw, err := node.Raw()
	if err != nil {
		return out, errors.Wrap(err, "callback payload")
	}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) {
		var inner string
		if err := sonic.UnmarshalString(raw, &inner); err != nil {
			return out, errors.Wrap(err, "callback payload")
		}
		raw = inner
	}
	out.Payload = []byte(raw)

	if cs, err := sonic.Get(body, "checksum"); err == nil {
		if v, err := cs.String(); err == nil {
			out.Checksum = strings.TrimSpace(v)
		}
	}
	return out, nil
}

type GatewayEventResponse struct {
	GatewayEventID            uuid.UUID      `json:"gateway_event_id"`
	GatewayEventProvider      string         `json:"gateway_event_provider"`
	GatewayEventType          string         `json:"gateway_event_type"`
	GatewayEventFeeLedgerID   *uuid.UUID     `json:"gateway_event_fee_ledger_id,omitempty"`
	GatewayEventTransactionID *string        `json:"gateway_event_transaction_id,omitempty"`
	GatewayEventPayloadStatus *string        `json:"gateway_event_payload_status,omitempty"`
	GatewayEventPayload       datatypes.JSON `json:"gateway_event_payload"`
	GatewayEventStatus        string         `json:"gateway_event_status"`
	GatewayEventError         *string        `json:"gateway_event_error,omitempty"`
	GatewayEventReceivedAt    time.Time      `json:"gateway_event_received_at"`
	GatewayEventProcessedAt   *time.Time     `json:"gateway_event_processed_at,omitempty"`
}

func FromModelEvent(m *model.GatewayEvent) GatewayEventResponse {
	return GatewayEventResponse{
		GatewayEventID:            m.GatewayEventID,
		GatewayEventProvider:      m.GatewayEventProvider,
		GatewayEventType:          m.GatewayEventType,
		GatewayEventFeeLedgerID:   m.GatewayEventFeeLedgerID,
		GatewayEventTransactionID: m.GatewayEventTransactionID,
		GatewayEventPayloadStatus: m.GatewayEventPayloadStatus,
		GatewayEventPayload:       m.GatewayEventPayload,
		GatewayEventStatus:        string(m.GatewayEventStatus),
		GatewayEventError:         m.GatewayEventError,
		GatewayEventReceivedAt:    m.GatewayEventReceivedAt,
		GatewayEventProcessedAt:   m.GatewayEventProcessedAt,
	}
}

func FromModelEvents(rows []model.GatewayEvent) []GatewayEventResponse {
	out := make([]GatewayEventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModelEvent(&rows[i]))
	}
	return out
}
