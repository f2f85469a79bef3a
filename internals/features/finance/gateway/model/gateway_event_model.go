// file: internals/features/finance/gateway/model/gateway_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
  gateway_events = LOG CALLBACK PAYMENT GATEWAY
  - Satu row per callback yang masuk (termasuk replay & yang ditolak)
  - Nyimpen payload mentah, checksum, hasil processing.
*/

type GatewayEventStatus string

const (
	GatewayEventStatusReceived       GatewayEventStatus = "received"
	GatewayEventStatusApplied        GatewayEventStatus = "applied"
	GatewayEventStatusAlreadyApplied GatewayEventStatus = "already_applied"
	GatewayEventStatusIgnored        GatewayEventStatus = "ignored"
	GatewayEventStatusRejected       GatewayEventStatus = "rejected"
	GatewayEventStatusFailed         GatewayEventStatus = "failed"
)

type GatewayEvent struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;primaryKey" json:"gateway_event_id"`

	GatewayEventProvider string `gorm:"column:gateway_event_provider;type:varchar(40);not null" json:"gateway_event_provider"`
	GatewayEventType     string `gorm:"column:gateway_event_type;type:varchar(40);not null" json:"gateway_event_type"`

	// Referensi (bisa kosong kalau payload rusak)
	GatewayEventFeeLedgerID   *uuid.UUID `gorm:"column:gateway_event_fee_ledger_id;type:uuid;index:idx_gateway_events_ledger" json:"gateway_event_fee_ledger_id,omitempty"`
	GatewayEventTransactionID *string    `gorm:"column:gateway_event_transaction_id;type:varchar(100);index:idx_gateway_events_tx" json:"gateway_event_transaction_id,omitempty"`
	GatewayEventPayloadStatus *string    `gorm:"column:gateway_event_payload_status;type:varchar(40)" json:"gateway_event_payload_status,omitempty"`

	// Raw data (buat debug / replay)
	GatewayEventPayload  datatypes.JSON `gorm:"column:gateway_event_payload" json:"gateway_event_payload"`
	GatewayEventChecksum *string        `gorm:"column:gateway_event_checksum;type:varchar(128)" json:"gateway_event_checksum,omitempty"`

	// Status processing internal
	GatewayEventStatus GatewayEventStatus `gorm:"column:gateway_event_status;type:varchar(20);not null;index:idx_gateway_events_status" json:"gateway_event_status"`
	GatewayEventError  *string            `gorm:"column:gateway_event_error" json:"gateway_event_error,omitempty"`

	GatewayEventReceivedAt  time.Time  `gorm:"column:gateway_event_received_at;not null;index:idx_gateway_events_received" json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time `gorm:"column:gateway_event_processed_at" json:"gateway_event_processed_at,omitempty"`
}

func (GatewayEvent) TableName() string {
	return "gateway_events"
}

func (m *GatewayEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if m.GatewayEventID == uuid.Nil {
		m.GatewayEventID = uuid.New()
	}
	if m.GatewayEventReceivedAt.IsZero() {
		m.GatewayEventReceivedAt = time.Now()
	}
	if m.GatewayEventStatus == "" {
		m.GatewayEventStatus = GatewayEventStatusReceived
	}
	return nil
}
