// Package cancellation decides whether a booking may be cancelled and how
// much of its price is refunded. Evaluate is the only place refund amounts
// are computed.
package cancellation

import (
	"math"
	"time"

	"parkspot/internal/domain/policies"
)

type Reason string

const (
	ReasonBookingStarted    Reason = "booking_started"
	ReasonWithinBlockWindow Reason = "within_block_window"
	ReasonNonRefundable     Reason = "non_refundable"
	ReasonFullRefund        Reason = "full_refund"
	ReasonPartialRefund     Reason = "partial_refund"
	ReasonNoRefund          Reason = "no_refund"
)

// Subject is the part of a booking the decision depends on.
type Subject struct {
	StartAt         time.Time
	TotalPriceCents int64
	NonRefundable   bool
}

type Decision struct {
	CanCancel        bool    `json:"can_cancel"`
	RefundCents      int64   `json:"refund_cents"`
	RefundPercentage float64 `json:"refund_percentage"`
	Reason           Reason  `json:"reason"`
	HoursUntilStart  float64 `json:"hours_until_start"`
}

// Evaluate applies the policy rules in order; the first match wins.
func Evaluate(s Subject, p policies.Policy, now time.Time) Decision {
	hours := s.StartAt.Sub(now).Hours()
	started := !now.Before(s.StartAt)

	switch {
	case started && !p.AllowAfterStart:
		return blocked(ReasonBookingStarted, hours)
	case !started && hours < p.NonCancellableHours:
		return blocked(ReasonWithinBlockWindow, hours)
	case s.NonRefundable:
		return allowed(s, 0, ReasonNonRefundable, hours)
	case hours >= p.FullRefundHours:
		return allowed(s, 100, ReasonFullRefund, hours)
	case hours >= p.PartialRefundHours:
		return allowed(s, clampPercent(p.PartialRefundPercentage), ReasonPartialRefund, hours)
	default:
		return allowed(s, 0, ReasonNoRefund, hours)
	}
}

func blocked(reason Reason, hours float64) Decision {
	return Decision{Reason: reason, HoursUntilStart: hours}
}

func allowed(s Subject, pct float64, reason Reason, hours float64) Decision {
	return Decision{
		CanCancel:        true,
		RefundCents:      RefundAmount(s.TotalPriceCents, pct),
		RefundPercentage: pct,
		Reason:           reason,
		HoursUntilStart:  hours,
	}
}

// RefundAmount rounds pct% of total to whole cents and never exceeds total.
func RefundAmount(totalCents int64, pct float64) int64 {
	if totalCents <= 0 || pct <= 0 {
		return 0
	}
	amt := int64(math.Round(float64(totalCents) * pct / 100))
	return min(amt, totalCents)
}

func clampPercent(pct float64) float64 {
	return math.Max(0, math.Min(100, pct))
}
