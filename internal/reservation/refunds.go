package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parkspot/internal/domain/audit"
	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/paymentsrepo"
	"parkspot/internal/domain/storage"
	"parkspot/internal/notifications"
	"parkspot/internal/payments"
)

type ApproveRequest struct {
	BookingID int64
	AdminID   int64
	// AmountCents, when set, must equal the amount the policy granted at
	// cancellation. Admins confirm the refund, they do not re-price it.
	AmountCents *int64
}

type RejectRequest struct {
	BookingID int64
	AdminID   int64
	Reason    string
}

// lockPendingRefund loads a booking for update and checks it still awaits a
// refund decision.
func lockPendingRefund(ctx context.Context, r *storage.Repos, id int64) (*bookings.Booking, error) {
	b, err := r.Bookings.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, bookings.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if b.RefundStatus == nil {
		return nil, ErrNoRefundPending
	}
	if *b.RefundStatus != bookings.RefundPending {
		return nil, ErrAlreadyProcessed
	}
	return b, nil
}

func originalCharge(txns []paymentsrepo.Transaction) *paymentsrepo.Transaction {
	for i := range txns {
		if txns[i].Kind == paymentsrepo.KindCharge {
			return &txns[i]
		}
	}
	return nil
}

// ApproveRefund pays out the pending refund through the gateway and records
// the refund transaction. Approving twice fails with ErrAlreadyProcessed.
func (e *Engine) ApproveRefund(ctx context.Context, req ApproveRequest) (*bookings.Booking, error) {
	now := e.clock()
	var (
		booking *bookings.Booking
		refund  payments.RefundResult
	)
	err := e.store.WithTx(ctx, func(r *storage.Repos) error {
		b, err := lockPendingRefund(ctx, r, req.BookingID)
		if err != nil {
			return err
		}
		if req.AmountCents != nil && *req.AmountCents != b.RefundAmountCents {
			return invalid("amount_cents", "must equal the granted refund of %d", b.RefundAmountCents)
		}

		txns, err := r.Payments.ListByBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		charge := originalCharge(txns)
		if charge == nil {
			return ErrNoChargeRecorded
		}

		refund, err = e.gateway.Refund(ctx, payments.RefundRequest{
			IdempotencyKey: fmt.Sprintf("refund-%d", b.ID),
			TransactionID:  charge.ProviderRef,
			AmountCents:    b.RefundAmountCents,
			Reason:         "cancellation refund",
		})
		if err != nil {
			return paymentError("refund", err)
		}

		txn := &paymentsrepo.Transaction{
			BookingID:   b.ID,
			Provider:    e.gateway.Name(),
			ProviderRef: refund.RefundID,
			Kind:        paymentsrepo.KindRefund,
			Method:      paymentsrepo.MethodAdministrativeApproval,
			AmountCents: b.RefundAmountCents,
			Currency:    charge.Currency,
			Status:      refund.Status,
		}
		if err := r.Payments.Create(ctx, txn); err != nil {
			return err
		}
		if err := r.Payments.InsertLog(ctx, txn.ID, paymentsrepo.LogRefundResponse, refund.Raw); err != nil {
			return err
		}

		approved := bookings.RefundApproved
		b.RefundStatus = &approved
		b.RefundDecidedAt = &now
		b.PaymentStatus = bookings.PaymentRefunded
		if b.RefundAmountCents < b.TotalPriceCents {
			b.PaymentStatus = bookings.PaymentPartiallyRefunded
		}
		if err := r.Bookings.SaveRefundDecision(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		// The gateway refund is keyed by booking, so a retry after a failed
		// commit cannot pay out twice.
		return nil, fail("approve refund", err)
	}

	e.logger.Infow("refund approved", "booking_id", booking.ID, "refund_cents", booking.RefundAmountCents, "refund_id", refund.RefundID)
	e.appendAudit(ctx, &audit.Entry{
		BookingID: booking.ID,
		LotID:     booking.LotID,
		ActorID:   req.AdminID,
		Action:    audit.ActionRefundApproved,
		Detail: map[string]any{
			"refund_cents": booking.RefundAmountCents,
			"refund_id":    refund.RefundID,
		},
	})
	e.dispatch(ctx, e.notice(notifications.EventRefundApproved, booking))
	return booking, nil
}

// RejectRefund closes a pending refund without paying it. A reason is
// mandatory.
func (e *Engine) RejectRefund(ctx context.Context, req RejectRequest) (*bookings.Booking, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, invalid("reason", "is required")
	}
	now := e.clock()

	var booking *bookings.Booking
	err := e.store.WithTx(ctx, func(r *storage.Repos) error {
		b, err := lockPendingRefund(ctx, r, req.BookingID)
		if err != nil {
			return err
		}
		rejected := bookings.RefundRejected
		b.RefundStatus = &rejected
		b.RefundDecidedAt = &now
		b.RefundRejectionReason = &reason
		b.PaymentStatus = bookings.PaymentCancelledRefundRejected
		if err := r.Bookings.SaveRefundDecision(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, fail("reject refund", err)
	}

	e.logger.Infow("refund rejected", "booking_id", booking.ID, "reason", reason)
	e.appendAudit(ctx, &audit.Entry{
		BookingID: booking.ID,
		LotID:     booking.LotID,
		ActorID:   req.AdminID,
		Action:    audit.ActionRefundRejected,
		Detail:    map[string]any{"reason": reason},
	})
	n := e.notice(notifications.EventRefundRejected, booking)
	n.Reason = reason
	e.dispatch(ctx, n)
	return booking, nil
}
