package bookings

import (
	"errors"
	"time"
)

const QueryTimeoutDuration = time.Second * 5

var ErrNotFound = errors.New("booking not found")

// Status is the stored lifecycle state. Completion is derived at read time.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Occupies reports whether a booking in this state holds its slot.
func (s Status) Occupies() bool {
	return s == StatusPending || s == StatusConfirmed
}

type PaymentStatus string

const (
	PaymentPending                 PaymentStatus = "pending"
	PaymentPaid                    PaymentStatus = "paid"
	PaymentPendingRefund           PaymentStatus = "pending_refund"
	PaymentRefunded                PaymentStatus = "refunded"
	PaymentPartiallyRefunded       PaymentStatus = "partially_refunded"
	PaymentCancelledNoRefund       PaymentStatus = "cancelled_no_refund"
	PaymentCancelledRefundRejected PaymentStatus = "cancelled_refund_rejected"
)

type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
	RefundRejected RefundStatus = "rejected"
)

type Booking struct {
	ID                    int64         `json:"id"`
	LotID                 int64         `json:"lot_id"`
	RequesterID           int64         `json:"requester_id"`
	StartAt               time.Time     `json:"start_at"`
	DurationHours         int           `json:"duration_hours"`
	TotalPriceCents       int64         `json:"total_price_cents"`
	SlotID                *string       `json:"slot_id,omitempty"`
	Vehicle               string        `json:"vehicle"`
	Contact               string        `json:"contact"`
	ContactEmail          *string       `json:"contact_email,omitempty"`
	Status                Status        `json:"status"`
	PaymentStatus         PaymentStatus `json:"payment_status"`
	RefundStatus          *RefundStatus `json:"refund_status,omitempty"`
	RefundAmountCents     int64         `json:"refund_amount_cents"`
	NonRefundable         bool          `json:"non_refundable"`
	CancelledAt           *time.Time    `json:"cancelled_at,omitempty"`
	CancellationReason    *string       `json:"cancellation_reason,omitempty"`
	RefundDecidedAt       *time.Time    `json:"refund_decided_at,omitempty"`
	RefundRejectionReason *string       `json:"refund_rejection_reason,omitempty"`
	ReminderSent          bool          `json:"reminder_sent"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// EndAt is the exclusive end of the booking window.
func (b *Booking) EndAt() time.Time {
	return b.StartAt.Add(time.Duration(b.DurationHours) * time.Hour)
}

func (b *Booking) Slot() string {
	if b.SlotID == nil {
		return ""
	}
	return *b.SlotID
}

func (b *Booking) RefundPending() bool {
	return b.RefundStatus != nil && *b.RefundStatus == RefundPending
}
