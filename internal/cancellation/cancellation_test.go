package cancellation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parkspot/internal/domain/policies"
)

var now = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

func subjectIn(hours float64, totalCents int64) Subject {
	return Subject{
		StartAt:         now.Add(time.Duration(hours * float64(time.Hour))),
		TotalPriceCents: totalCents,
	}
}

func TestEvaluateTiers(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		policy  policies.Policy
		want    Decision
	}{
		{
			name:    "full refund well ahead",
			subject: subjectIn(30, 10000),
			policy:  policies.Policy{FullRefundHours: 24},
			want:    Decision{CanCancel: true, RefundCents: 10000, RefundPercentage: 100, Reason: ReasonFullRefund, HoursUntilStart: 30},
		},
		{
			name:    "partial refund",
			subject: subjectIn(10, 10000),
			policy:  policies.Policy{FullRefundHours: 24, PartialRefundHours: 0, PartialRefundPercentage: 50},
			want:    Decision{CanCancel: true, RefundCents: 5000, RefundPercentage: 50, Reason: ReasonPartialRefund, HoursUntilStart: 10},
		},
		{
			name:    "within block window",
			subject: subjectIn(1, 10000),
			policy:  policies.Policy{FullRefundHours: 24, NonCancellableHours: 2},
			want:    Decision{Reason: ReasonWithinBlockWindow, HoursUntilStart: 1},
		},
		{
			name:    "no refund below partial tier",
			subject: subjectIn(3, 10000),
			policy:  policies.Default(),
			want:    Decision{CanCancel: true, Reason: ReasonNoRefund, HoursUntilStart: 3},
		},
		{
			name:    "started",
			subject: subjectIn(-0.5, 10000),
			policy:  policies.Default(),
			want:    Decision{Reason: ReasonBookingStarted, HoursUntilStart: -0.5},
		},
		{
			name:    "started but allowed",
			subject: subjectIn(-0.5, 10000),
			policy:  policies.Policy{AllowAfterStart: true, NonCancellableHours: 5},
			want:    Decision{CanCancel: true, Reason: ReasonNoRefund, HoursUntilStart: -0.5},
		},
		{
			name:    "non refundable",
			subject: Subject{StartAt: now.Add(48 * time.Hour), TotalPriceCents: 10000, NonRefundable: true},
			policy:  policies.Default(),
			want:    Decision{CanCancel: true, Reason: ReasonNonRefundable, HoursUntilStart: 48},
		},
		{
			name:    "percentage clamped",
			subject: subjectIn(8, 999),
			policy:  policies.Policy{FullRefundHours: 24, PartialRefundHours: 6, PartialRefundPercentage: 140},
			want:    Decision{CanCancel: true, RefundCents: 999, RefundPercentage: 100, Reason: ReasonPartialRefund, HoursUntilStart: 8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.subject, tt.policy, now)
			assert.InDelta(t, tt.want.HoursUntilStart, got.HoursUntilStart, 1e-9)
			got.HoursUntilStart = tt.want.HoursUntilStart
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	s := subjectIn(7.25, 4321)
	p := policies.Default()

	first := Evaluate(s, p, now)
	for range 50 {
		assert.Equal(t, first, Evaluate(s, p, now))
	}
}

func TestRefundNeverGrowsAsStartApproaches(t *testing.T) {
	p := policies.Default()
	s := subjectIn(0, 10001)

	prev := int64(-1)
	// walk the clock forward toward the start in quarter hours
	for step := 0; step <= 4*72; step++ {
		at := s.StartAt.Add(-72 * time.Hour).Add(time.Duration(step) * 15 * time.Minute)
		d := Evaluate(s, p, at)
		if prev >= 0 {
			assert.LessOrEqual(t, d.RefundCents, prev, "at %s", at)
		}
		prev = d.RefundCents
	}
	assert.Zero(t, prev)
}

func TestRefundAmount(t *testing.T) {
	assert.Equal(t, int64(5000), RefundAmount(10000, 50))
	assert.Equal(t, int64(1), RefundAmount(1, 50), "half cents round away from zero")
	assert.Equal(t, int64(333), RefundAmount(999, 33.33))
	assert.Zero(t, RefundAmount(0, 100))
	assert.Zero(t, RefundAmount(500, 0))
	assert.Equal(t, int64(500), RefundAmount(500, 100))
}
