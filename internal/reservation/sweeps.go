package reservation

import (
	"context"

	"go.uber.org/multierr"

	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/storage"
	"parkspot/internal/notifications"
)

// SendDueReminders notifies confirmed bookings starting in roughly an hour.
// Each booking is claimed before delivery, so it is reminded at most once
// even when sweeps overlap. It returns the number of reminders delivered.
func (e *Engine) SendDueReminders(ctx context.Context) (int, error) {
	now := e.clock()
	from := now.Add(reminderLead - reminderSlack)
	to := now.Add(reminderLead + reminderSlack)

	var claimed []bookings.Booking
	err := e.store.WithTx(ctx, func(r *storage.Repos) error {
		var err error
		claimed, err = r.Bookings.ClaimDueReminders(ctx, from, to)
		return err
	})
	if err != nil {
		return 0, fail("claim due reminders", err)
	}

	sent := 0
	var errs error
	for i := range claimed {
		if err := e.deliver(ctx, e.notice(notifications.EventBookingReminder, &claimed[i])); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		sent++
	}
	return sent, errs
}

// RecomputeAvailability resets each lot's counter to its capacity minus the
// bookings still holding a spot, which returns spots of ended bookings. It
// returns the number of lots whose counter changed.
func (e *Engine) RecomputeAvailability(ctx context.Context) (int, error) {
	ls, err := e.store.Repos().Lots.List(ctx)
	if err != nil {
		return 0, fail("list lots", err)
	}
	now := e.clock()

	changed := 0
	var errs error
	for _, l := range ls {
		err := e.store.WithTx(ctx, func(r *storage.Repos) error {
			cur, err := r.Lots.GetForUpdate(ctx, l.ID)
			if err != nil {
				return err
			}
			held, err := r.Bookings.CountActiveEndingAfter(ctx, cur.ID, now)
			if err != nil {
				return err
			}
			want := max(0, cur.TotalCapacity-held)
			if want == cur.AvailableCapacity {
				return nil
			}
			if err := r.Lots.SetAvailable(ctx, cur.ID, want); err != nil {
				return err
			}
			e.logger.Infow("lot availability recomputed", "lot_id", cur.ID, "from", cur.AvailableCapacity, "to", want)
			changed++
			return nil
		})
		if err != nil {
			errs = multierr.Append(errs, fail("recompute lot availability", err))
		}
	}
	return changed, errs
}
