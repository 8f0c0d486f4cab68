package notifications

import (
	"context"
	"time"
)

type Event string

const (
	EventBookingCreated   Event = "booking.created"
	EventBookingCancelled Event = "booking.cancelled"
	EventRefundApproved   Event = "refund.approved"
	EventRefundRejected   Event = "refund.rejected"
	EventBookingReminder  Event = "booking.reminder"
)

// Notice is the payload handed to every channel.
type Notice struct {
	Event       Event     `json:"event"`
	BookingID   int64     `json:"booking_id"`
	Reference   string    `json:"reference"`
	RequesterID int64     `json:"requester_id"`
	Contact     string    `json:"contact"`
	Email       string    `json:"email,omitempty"`
	LotID       int64     `json:"lot_id"`
	LotName     string    `json:"lot_name"`
	SlotID      string    `json:"slot_id,omitempty"`
	Vehicle     string    `json:"vehicle"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	AmountCents int64     `json:"amount_cents"`
	RefundCents int64     `json:"refund_cents,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice) error

func (f NotifierFunc) Notify(ctx context.Context, n Notice) error { return f(ctx, n) }

// Nop drops every notice.
var Nop Notifier = NotifierFunc(func(context.Context, Notice) error { return nil })
