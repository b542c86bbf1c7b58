package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentAttemptStatus is the reconciliation state of one gateway order.
type PaymentAttemptStatus string

const (
	PaymentAttemptInitiated PaymentAttemptStatus = "Initiated"
	PaymentAttemptVerified  PaymentAttemptStatus = "Verified"
	PaymentAttemptRejected  PaymentAttemptStatus = "Rejected"
)

// PaymentAttempt is the ledger row for one gateway order.
type PaymentAttempt struct {
	ID               uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID           string               `gorm:"index;not null" json:"userId"`
	Gateway          string               `gorm:"not null" json:"gateway"`
	GatewayOrderID   string               `gorm:"uniqueIndex;not null" json:"gatewayOrderId"`
	GatewayPaymentID string               `json:"gatewayPaymentId,omitempty"`
	AmountMinor      int64                `gorm:"not null" json:"amountMinor"`
	Currency         string               `gorm:"size:3;not null" json:"currency"`
	Receipt          string               `json:"receipt"`
	Status           PaymentAttemptStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	FailureReason    string               `json:"failureReason,omitempty"`
	OrderID          string               `gorm:"index" json:"orderId,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func (p *PaymentAttempt) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CreatePaymentOrderRequest struct {
	Amount float64 `json:"amount"`
}

type CreatePaymentOrderResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId,omitempty"`
	Receipt  string `json:"receipt"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

// PaymentVerification is the outcome of a successful verification.
type PaymentVerification struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	AmountMinor      int64  `json:"amountMinor"`
	Token            string `json:"token,omitempty"`
}
