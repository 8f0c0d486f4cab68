package reservation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"parkspot/internal/availability"
	"parkspot/internal/domain/audit"
	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/lots"
	"parkspot/internal/domain/paymentsrepo"
	"parkspot/internal/domain/storage"
	"parkspot/internal/notifications"
	"parkspot/internal/payments"
	"parkspot/internal/pricing"
)

// Reservation is a committed booking together with what was charged for it.
type Reservation struct {
	Booking    bookings.Booking `json:"booking"`
	Reference  string           `json:"reference"`
	Quote      pricing.Quote    `json:"quote"`
	PaymentRef string           `json:"payment_ref"`
}

// CreateReservation validates the request, then in one transaction locks the
// lot, resolves the slot, prices the stay, captures payment and persists the
// booking. Nothing is persisted unless every step succeeds.
func (e *Engine) CreateReservation(ctx context.Context, req CreateRequest) (*Reservation, error) {
	now := e.clock()
	start, err := e.validateCreate(&req, now)
	if err != nil {
		return nil, err
	}
	window := availability.NewWindow(start, req.DurationHours)
	idemKey := uuid.NewString()

	var (
		lot     *lots.Lot
		booking *bookings.Booking
		quote   pricing.Quote
		charge  *payments.ChargeResult
	)
	err = e.store.WithTx(ctx, func(r *storage.Repos) error {
		l, err := r.Lots.GetForUpdate(ctx, req.LotID)
		if err != nil {
			if errors.Is(err, lots.ErrNotFound) {
				return ErrLotNotFound
			}
			return err
		}
		lot = l

		grid := gridOf(l)
		if req.SlotID != "" && !grid.Contains(req.SlotID) {
			return invalid("slot_id", "%s is not a slot of lot %d", req.SlotID, l.ID)
		}
		if l.AvailableCapacity <= 0 {
			return ErrLotFull
		}

		active, err := r.Bookings.ListActiveOverlapping(ctx, l.ID, window.Start, window.End)
		if err != nil {
			return err
		}
		occupants := occupantsOf(active)
		slot := req.SlotID
		if slot != "" {
			if !availability.IsFree(slot, window, occupants) {
				return ErrSlotTaken
			}
		} else {
			free := availability.FreeSlots(grid, window, occupants)
			if len(free) == 0 {
				return ErrNoFreeSlot
			}
			slot = free[0]
		}

		recent, err := r.Bookings.CountCreatedSince(ctx, l.ID, now.Add(-velocityWindow))
		if err != nil {
			return err
		}
		quote = pricing.Calculate(pricing.Input{
			BasePriceCents:    l.BasePriceCents,
			TotalCapacity:     l.TotalCapacity,
			AvailableCapacity: l.AvailableCapacity,
			RecentBookings:    recent,
			DurationHours:     req.DurationHours,
			Now:               now,
		})

		res, err := e.gateway.Charge(ctx, payments.ChargeRequest{
			IdempotencyKey: idemKey,
			AmountCents:    quote.FinalPriceCents,
			Currency:       e.currency,
			Description:    fmt.Sprintf("%s slot %s, %dh from %s", l.Name, slot, req.DurationHours, start.Format("2006-01-02 15:04")),
			CustomerRef:    strconv.FormatInt(req.RequesterID, 10),
		})
		if err != nil {
			return paymentError("charge", err)
		}
		charge = &res

		b := &bookings.Booking{
			LotID:           l.ID,
			RequesterID:     req.RequesterID,
			StartAt:         start,
			DurationHours:   req.DurationHours,
			TotalPriceCents: quote.FinalPriceCents,
			SlotID:          &slot,
			Vehicle:         req.Vehicle,
			Contact:         req.Contact,
			Status:          bookings.StatusConfirmed,
			PaymentStatus:   bookings.PaymentPaid,
			NonRefundable:   req.NonRefundable,
			CreatedAt:       now,
		}
		if req.Email != "" {
			email := req.Email
			b.ContactEmail = &email
		}
		if err := r.Bookings.Create(ctx, b); err != nil {
			return err
		}

		txn := &paymentsrepo.Transaction{
			BookingID:   b.ID,
			Provider:    e.gateway.Name(),
			ProviderRef: res.TransactionID,
			Kind:        paymentsrepo.KindCharge,
			Method:      e.gateway.Name(),
			AmountCents: quote.FinalPriceCents,
			Currency:    e.currency,
			Status:      res.Status,
		}
		if err := r.Payments.Create(ctx, txn); err != nil {
			return err
		}
		if err := r.Payments.InsertLog(ctx, txn.ID, paymentsrepo.LogChargeResponse, res.Raw); err != nil {
			return err
		}

		if err := r.Lots.DecrementAvailable(ctx, l.ID); err != nil {
			if errors.Is(err, lots.ErrNoCapacity) {
				return ErrLotFull
			}
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		if charge != nil {
			e.voidCharge(ctx, charge.TransactionID, quote.FinalPriceCents, idemKey)
		}
		return nil, fail("create reservation", err)
	}

	e.logger.Infow("reservation created",
		"booking_id", booking.ID,
		"lot_id", lot.ID,
		"slot_id", booking.Slot(),
		"price_cents", booking.TotalPriceCents,
	)
	e.recordSample(ctx, lot.ID, quote)
	e.appendAudit(ctx, &audit.Entry{
		BookingID: booking.ID,
		LotID:     lot.ID,
		ActorID:   req.RequesterID,
		Action:    audit.ActionBookingCreated,
		Detail: map[string]any{
			"slot_id":     booking.Slot(),
			"price_cents": booking.TotalPriceCents,
			"payment_ref": charge.TransactionID,
		},
	})

	n := e.notice(notifications.EventBookingCreated, booking)
	n.LotName = lot.Name
	e.dispatch(ctx, n)

	return &Reservation{
		Booking:    *booking,
		Reference:  n.Reference,
		Quote:      quote,
		PaymentRef: charge.TransactionID,
	}, nil
}

// voidCharge returns money captured for a transaction that then rolled back.
func (e *Engine) voidCharge(ctx context.Context, transactionID string, amount int64, idemKey string) {
	_, err := e.gateway.Refund(context.WithoutCancel(ctx), payments.RefundRequest{
		IdempotencyKey: "void-" + idemKey,
		TransactionID:  transactionID,
		AmountCents:    amount,
		Reason:         "reservation rolled back",
	})
	if err != nil {
		e.logger.Errorw("void captured charge", "transaction_id", transactionID, "amount_cents", amount, "error", err)
		return
	}
	e.logger.Warnw("captured charge voided after rollback", "transaction_id", transactionID, "amount_cents", amount)
}

func paymentError(op string, err error) error {
	if errors.Is(err, payments.ErrDeclined) {
		return fmt.Errorf("%w: %v", ErrPaymentDeclined, err)
	}
	return &TransientError{Op: op, Err: err}
}
