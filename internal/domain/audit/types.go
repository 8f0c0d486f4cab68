package audit

import "time"

type Action string

const (
	ActionBookingCreated   Action = "booking_created"
	ActionBookingCancelled Action = "booking_cancelled"
	ActionRefundApproved   Action = "refund_approved"
	ActionRefundRejected   Action = "refund_rejected"
)

type Entry struct {
	ID        int64          `json:"id"`
	BookingID int64          `json:"booking_id"`
	LotID     int64          `json:"lot_id"`
	ActorID   int64          `json:"actor_id"`
	Action    Action         `json:"action"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
