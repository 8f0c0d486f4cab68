package paymentsrepo

import (
	"time"
)

type Kind string

const (
	KindCharge Kind = "charge"
	KindRefund Kind = "refund"
)

const MethodAdministrativeApproval = "administrative_approval"

// Transaction is one money movement against a booking.
type Transaction struct {
	ID          int64     `json:"id"`
	BookingID   int64     `json:"booking_id"`
	Provider    string    `json:"provider"`
	ProviderRef string    `json:"provider_ref"`
	Kind        Kind      `json:"kind"`
	Method      string    `json:"method"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type LogType string

const (
	LogChargeResponse LogType = "charge_response"
	LogRefundResponse LogType = "refund_response"
)

// Log keeps the raw gateway exchange for a transaction.
type Log struct {
	ID            int64     `json:"id"`
	TransactionID int64     `json:"transaction_id"`
	LogType       LogType   `json:"log_type"`
	Payload       any       `json:"payload,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
