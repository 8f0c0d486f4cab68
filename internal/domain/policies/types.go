package policies

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("no active cancellation policy")

// Policy is the refund-tier configuration consulted on cancellation. Hour
// thresholds are measured against the time left until the booking starts.
type Policy struct {
	ID                      int64     `json:"id"`
	FullRefundHours         float64   `json:"full_refund_hours"`
	PartialRefundHours      float64   `json:"partial_refund_hours"`
	PartialRefundPercentage float64   `json:"partial_refund_percentage"`
	NonCancellableHours     float64   `json:"non_cancellable_hours"`
	AllowAfterStart         bool      `json:"allow_after_start"`
	IsActive                bool      `json:"is_active"`
	CreatedAt               time.Time `json:"created_at"`
}

// Default applies when no policy row is active.
func Default() Policy {
	return Policy{
		FullRefundHours:         24,
		PartialRefundHours:      6,
		PartialRefundPercentage: 50,
		NonCancellableHours:     1,
		AllowAfterStart:         false,
		IsActive:                true,
	}
}
