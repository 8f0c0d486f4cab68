package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"parkspot/internal/cancellation"
	"parkspot/internal/domain/audit"
	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/policies"
	"parkspot/internal/domain/storage"
	"parkspot/internal/notifications"
)

type CancelRequest struct {
	BookingID int64
	ActorID   int64
	Reason    string
	// Policy overrides the stored active policy when set.
	Policy *policies.Policy
}

type RefundOutcome struct {
	Booking   bookings.Booking      `json:"booking"`
	Reference string                `json:"reference"`
	Decision  cancellation.Decision `json:"decision"`
}

// ActivePolicy returns the stored active policy, or the built-in default
// when none is configured.
func (e *Engine) ActivePolicy(ctx context.Context) (policies.Policy, error) {
	p, err := e.store.Repos().Policies.GetActive(ctx)
	switch {
	case errors.Is(err, policies.ErrNotFound):
		return policies.Default(), nil
	case err != nil:
		return policies.Policy{}, fail("load cancellation policy", err)
	}
	return *p, nil
}

// subjectOf exposes only money actually captured to the policy evaluation.
func subjectOf(b *bookings.Booking) cancellation.Subject {
	s := cancellation.Subject{StartAt: b.StartAt, NonRefundable: b.NonRefundable}
	if b.PaymentStatus == bookings.PaymentPaid {
		s.TotalPriceCents = b.TotalPriceCents
	}
	return s
}

// cancellable rejects cancelled bookings and bookings whose window has ended.
// An ended booking no longer holds a spot, so cancelling it would hand the
// lot a spot back twice.
func cancellable(b *bookings.Booking, now time.Time) error {
	if !b.Status.CanTransitionTo(bookings.StatusCancelled) {
		return ErrAlreadyCancelled
	}
	if Classify(b, now) == ClassPast {
		return ErrAlreadyCompleted
	}
	return nil
}

// PreviewCancellation evaluates the policy without changing anything.
func (e *Engine) PreviewCancellation(ctx context.Context, bookingID int64) (*cancellation.Decision, error) {
	b, err := e.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	now := e.clock()
	if err := cancellable(b, now); err != nil {
		return nil, err
	}
	p, err := e.ActivePolicy(ctx)
	if err != nil {
		return nil, err
	}
	d := cancellation.Evaluate(subjectOf(b), p, now)
	return &d, nil
}

// CancelReservation applies the policy to a booking, records the refund the
// policy grants as pending and frees the lot capacity, all in one transaction.
// A second cancellation of the same booking fails with ErrAlreadyCancelled and
// a booking whose window has ended fails with ErrAlreadyCompleted.
func (e *Engine) CancelReservation(ctx context.Context, req CancelRequest) (*RefundOutcome, error) {
	policy := req.Policy
	if policy == nil {
		p, err := e.ActivePolicy(ctx)
		if err != nil {
			return nil, err
		}
		policy = &p
	}
	now := e.clock()

	var (
		booking  *bookings.Booking
		decision cancellation.Decision
	)
	err := e.store.WithTx(ctx, func(r *storage.Repos) error {
		b, err := r.Bookings.GetForUpdate(ctx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookings.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if err := cancellable(b, now); err != nil {
			return err
		}

		decision = cancellation.Evaluate(subjectOf(b), *policy, now)
		if !decision.CanCancel {
			return &PolicyError{Reason: decision.Reason, HoursUntilStart: decision.HoursUntilStart}
		}

		b.Status = bookings.StatusCancelled
		b.CancelledAt = &now
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			b.CancellationReason = &reason
		}
		if decision.RefundCents > 0 {
			pending := bookings.RefundPending
			b.RefundStatus = &pending
			b.RefundAmountCents = decision.RefundCents
			b.PaymentStatus = bookings.PaymentPendingRefund
		} else {
			b.RefundStatus = nil
			b.RefundAmountCents = 0
			b.PaymentStatus = bookings.PaymentCancelledNoRefund
		}

		if err := r.Bookings.SaveCancellation(ctx, b); err != nil {
			return err
		}
		if err := r.Lots.IncrementAvailable(ctx, b.LotID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, fail("cancel reservation", err)
	}

	e.logger.Infow("reservation cancelled",
		"booking_id", booking.ID,
		"reason", decision.Reason,
		"refund_cents", decision.RefundCents,
	)
	e.appendAudit(ctx, &audit.Entry{
		BookingID: booking.ID,
		LotID:     booking.LotID,
		ActorID:   req.ActorID,
		Action:    audit.ActionBookingCancelled,
		Detail: map[string]any{
			"policy_reason":     string(decision.Reason),
			"refund_cents":      decision.RefundCents,
			"refund_percentage": decision.RefundPercentage,
			"hours_until_start": decision.HoursUntilStart,
		},
	})

	n := e.notice(notifications.EventBookingCancelled, booking)
	if booking.CancellationReason != nil {
		n.Reason = *booking.CancellationReason
	}
	e.dispatch(ctx, n)

	return &RefundOutcome{Booking: *booking, Reference: n.Reference, Decision: decision}, nil
}
