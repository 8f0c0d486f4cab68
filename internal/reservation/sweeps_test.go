package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkspot/internal/domain/bookings"
	"parkspot/internal/notifications"
)

func TestSendDueReminders_OncePerBooking(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(20, 20)
	ctx := context.Background()

	soon := f.create(t, request(lot.ID, f.now.Add(time.Hour), 2, ""))
	f.create(t, request(lot.ID, f.now.Add(3*time.Hour), 2, ""))

	sent, err := f.engine.SendDueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = f.engine.SendDueReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	n, ok := f.notices.last(notifications.EventBookingReminder)
	require.True(t, ok)
	assert.Equal(t, soon.Booking.ID, n.BookingID)
	assert.Equal(t, "Harbour Street", n.LotName)

	view, err := f.engine.GetBooking(ctx, soon.Booking.ID)
	require.NoError(t, err)
	assert.True(t, view.ReminderSent)
}

func TestSendDueReminders_SkipsCancelled(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(20, 20)
	ctx := context.Background()
	res := f.create(t, request(lot.ID, f.now.Add(time.Hour), 2, ""))
	_, err := f.engine.CancelReservation(ctx, CancelRequest{BookingID: res.Booking.ID})
	require.NoError(t, err)

	sent, err := f.engine.SendDueReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestRecomputeAvailability_ReturnsEndedSpots(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(5, 3)
	base := bookings.Booking{
		LotID:         lot.ID,
		RequesterID:   7,
		DurationHours: 2,
		Vehicle:       "BA 1 CHA 1",
		Contact:       "9801234567",
		Status:        bookings.StatusConfirmed,
		PaymentStatus: bookings.PaymentPaid,
	}
	ended := base
	ended.StartAt = f.now.Add(-5 * time.Hour)
	upcoming := base
	upcoming.StartAt = f.now.Add(2 * time.Hour)
	cancelled := base
	cancelled.StartAt = f.now.Add(4 * time.Hour)
	cancelled.Status = bookings.StatusCancelled
	for _, b := range []bookings.Booking{ended, upcoming, cancelled} {
		f.store.AddBooking(b)
	}

	changed, err := f.engine.RecomputeAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, 4, f.lot(t, lot.ID).AvailableCapacity)

	changed, err = f.engine.RecomputeAvailability(context.Background())
	require.NoError(t, err)
	assert.Zero(t, changed)
}
