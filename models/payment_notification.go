package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentOutcome records what a gateway callback did to the order it named.
type PaymentOutcome string

const (
	PaymentOutcomeInvalidSignature PaymentOutcome = "invalid_signature"
	PaymentOutcomeMalformed        PaymentOutcome = "malformed_payload"
	PaymentOutcomeIgnoredStatus    PaymentOutcome = "ignored_status"
	PaymentOutcomeUnknownOrder     PaymentOutcome = "unknown_order"
	PaymentOutcomeApplied          PaymentOutcome = "applied"
	PaymentOutcomeAlreadyProcessed PaymentOutcome = "already_processed"
	PaymentOutcomeSkippedStatus    PaymentOutcome = "skipped_status"
)

type PaymentNotification struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderRef       string         `gorm:"index" json:"order_ref"` // order_id as sent by the gateway
	GatewayStatus  string         `json:"gateway_status"`
	Outcome        PaymentOutcome `gorm:"not null;index" json:"outcome"`
	SignatureValid bool           `json:"signature_valid"`
	Data           string         `gorm:"type:text" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (p *PaymentNotification) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
