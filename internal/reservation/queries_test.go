package reservation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkspot/internal/domain/bookings"
	"parkspot/internal/pricing"
)

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(20, 20)
	ctx := context.Background()
	f.create(t, request(lot.ID, tomorrow10, 2, "A1"))

	q := AvailabilityQuery{LotID: lot.ID, StartDate: "2026-03-05", StartTime: "11:00", DurationHours: 2}
	av, err := f.engine.CheckAvailability(ctx, q)
	require.NoError(t, err)
	assert.Len(t, av.FreeSlots, 19)
	assert.NotContains(t, av.FreeSlots, "A1")
	assert.Equal(t, "A2", av.FreeSlots[0])
	assert.Equal(t, 19, av.AvailableCapacity)
	assert.True(t, av.Bookable)

	q.StartTime = "12:00"
	av, err = f.engine.CheckAvailability(ctx, q)
	require.NoError(t, err)
	assert.Len(t, av.FreeSlots, 20)

	q.DurationHours = 0
	_, err = f.engine.CheckAvailability(ctx, q)
	assert.Equal(t, KindValidation, KindOf(err))

	q.DurationHours, q.LotID = 2, 404
	_, err = f.engine.CheckAvailability(ctx, q)
	require.ErrorIs(t, err, ErrLotNotFound)
}

func TestPriceQuoteAndTrend(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(20, 20)
	ctx := context.Background()

	q, err := f.engine.PriceQuote(ctx, lot.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(720), q.FinalPriceCents)

	require.NoError(t, f.store.Repos().Lots.SetAvailable(ctx, lot.ID, 1))
	f.now = f.now.Add(time.Minute)
	q, err = f.engine.PriceQuote(ctx, lot.ID, 2)
	require.NoError(t, err)
	// 95% occupied: 500 x 1.5 x 0.9 x 2h
	assert.Equal(t, int64(1350), q.FinalPriceCents)

	report, err := f.engine.PricingTrend(ctx, lot.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, pricing.TrendRising, report.Trend)
	require.Len(t, report.Samples, 2)
	assert.Equal(t, int64(1350), report.Samples[0].DynamicPriceCents)

	_, err = f.engine.PriceQuote(ctx, lot.ID, 30)
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = f.engine.PricingTrend(ctx, 404, 5)
	require.ErrorIs(t, err, ErrLotNotFound)
}

func TestGetBookingByReference(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(20, 20)
	ctx := context.Background()
	res := f.create(t, request(lot.ID, tomorrow10, 2, ""))

	view, err := f.engine.GetBookingByReference(ctx, strings.ToLower(res.Reference))
	require.NoError(t, err)
	assert.Equal(t, res.Booking.ID, view.ID)
	assert.Equal(t, res.Reference, view.Reference)
	assert.Equal(t, ClassActive, view.Classification)
	assert.True(t, view.EndAt.Equal(tomorrow10.Add(2*time.Hour)))

	_, err = f.engine.GetBookingByReference(ctx, "not-a-code")
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestListForRequester_NewestStartFirst(t *testing.T) {
	f := newFixture(t)
	lot := f.addLot(20, 20)
	early := f.create(t, request(lot.ID, tomorrow10, 2, ""))
	late := f.create(t, request(lot.ID, tomorrow10.Add(24*time.Hour), 2, ""))

	views, total, err := f.engine.ListForRequester(context.Background(), 7, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, views, 2)
	assert.Equal(t, late.Booking.ID, views[0].ID)
	assert.Equal(t, early.Booking.ID, views[1].ID)

	views, total, err = f.engine.ListForRequester(context.Background(), 7, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, views, 1)
	assert.Equal(t, early.Booking.ID, views[0].ID)
}

func TestClassify(t *testing.T) {
	now := testNow
	b := bookings.Booking{StartAt: now.Add(-3 * time.Hour), DurationHours: 2, Status: bookings.StatusConfirmed}
	assert.Equal(t, ClassPast, Classify(&b, now))

	b.StartAt = now.Add(-time.Hour)
	assert.Equal(t, ClassActive, Classify(&b, now))

	// the window is half-open, so a booking ending now is over
	b.StartAt = now.Add(-2 * time.Hour)
	assert.Equal(t, ClassPast, Classify(&b, now))

	b.StartAt = now.Add(time.Hour)
	b.Status = bookings.StatusCancelled
	assert.Equal(t, ClassCancelled, Classify(&b, now))
}
