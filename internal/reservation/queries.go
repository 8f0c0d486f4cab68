package reservation

import (
	"context"
	"errors"
	"time"

	"parkspot/internal/availability"
	"parkspot/internal/domain/audit"
	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/lots"
	"parkspot/internal/domain/pricinghistory"
	"parkspot/internal/pricing"
	"parkspot/internal/reference"
)

const (
	defaultTrendSamples = 10
	maxTrendSamples     = 100
)

// Classification is derived from status and the clock, never stored.
type Classification string

const (
	ClassActive    Classification = "active"
	ClassPast      Classification = "past"
	ClassCancelled Classification = "cancelled"
)

func Classify(b *bookings.Booking, now time.Time) Classification {
	switch {
	case b.Status == bookings.StatusCancelled:
		return ClassCancelled
	case !b.EndAt().After(now):
		return ClassPast
	default:
		return ClassActive
	}
}

type BookingView struct {
	bookings.Booking
	EndAt          time.Time      `json:"end_at"`
	Reference      string         `json:"reference"`
	Classification Classification `json:"classification"`
}

func (e *Engine) view(b *bookings.Booking, now time.Time) BookingView {
	return BookingView{
		Booking:        *b,
		EndAt:          b.EndAt(),
		Reference:      e.reference(b.ID),
		Classification: Classify(b, now),
	}
}

func (e *Engine) getBooking(ctx context.Context, id int64) (*bookings.Booking, error) {
	b, err := e.store.Repos().Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookings.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fail("get booking", err)
	}
	return b, nil
}

func (e *Engine) getLot(ctx context.Context, id int64) (*lots.Lot, error) {
	l, err := e.store.Repos().Lots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, lots.ErrNotFound) {
			return nil, ErrLotNotFound
		}
		return nil, fail("get lot", err)
	}
	return l, nil
}

func (e *Engine) GetBooking(ctx context.Context, id int64) (*BookingView, error) {
	b, err := e.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	v := e.view(b, e.clock())
	return &v, nil
}

// GetBookingByReference resolves a public reference code. Codes that do not
// decode are reported as a missing booking.
func (e *Engine) GetBookingByReference(ctx context.Context, ref string) (*BookingView, error) {
	if e.refs == nil {
		return nil, ErrBookingNotFound
	}
	id, err := e.refs.Decode(ref)
	if err != nil {
		if errors.Is(err, reference.ErrInvalid) {
			return nil, ErrBookingNotFound
		}
		return nil, fail("decode reference", err)
	}
	return e.GetBooking(ctx, id)
}

func (e *Engine) ListForRequester(ctx context.Context, requesterID int64, limit, offset int) ([]BookingView, int, error) {
	bs, total, err := e.store.Repos().Bookings.ListByRequester(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, 0, fail("list bookings", err)
	}
	return e.views(bs), total, nil
}

// ListPendingRefunds returns bookings awaiting an admin decision, oldest
// cancellation first.
func (e *Engine) ListPendingRefunds(ctx context.Context, limit, offset int) ([]BookingView, int, error) {
	bs, total, err := e.store.Repos().Bookings.ListPendingRefunds(ctx, limit, offset)
	if err != nil {
		return nil, 0, fail("list pending refunds", err)
	}
	return e.views(bs), total, nil
}

func (e *Engine) views(bs []bookings.Booking) []BookingView {
	now := e.clock()
	out := make([]BookingView, 0, len(bs))
	for i := range bs {
		out = append(out, e.view(&bs[i], now))
	}
	return out
}

type AvailabilityQuery struct {
	LotID         int64
	StartDate     string
	StartTime     string
	DurationHours int
}

type Availability struct {
	LotID             int64     `json:"lot_id"`
	StartAt           time.Time `json:"start_at"`
	EndAt             time.Time `json:"end_at"`
	FreeSlots         []string  `json:"free_slots"`
	TotalCapacity     int       `json:"total_capacity"`
	AvailableCapacity int       `json:"available_capacity"`
	// Bookable is false when either the lot counter or the window has no room.
	Bookable bool `json:"bookable"`
}

// CheckAvailability lists the slots free for a window. The answer is advisory;
// CreateReservation re-checks under the lot lock.
func (e *Engine) CheckAvailability(ctx context.Context, q AvailabilityQuery) (*Availability, error) {
	start, err := e.parseStart(q.StartDate, q.StartTime, e.clock())
	if err != nil {
		return nil, err
	}
	if err := validDuration(q.DurationHours); err != nil {
		return nil, err
	}
	l, err := e.getLot(ctx, q.LotID)
	if err != nil {
		return nil, err
	}

	w := availability.NewWindow(start, q.DurationHours)
	active, err := e.store.Repos().Bookings.ListActiveOverlapping(ctx, l.ID, w.Start, w.End)
	if err != nil {
		return nil, fail("list overlapping bookings", err)
	}
	free := availability.FreeSlots(gridOf(l), w, occupantsOf(active))
	return &Availability{
		LotID:             l.ID,
		StartAt:           w.Start,
		EndAt:             w.End,
		FreeSlots:         free,
		TotalCapacity:     l.TotalCapacity,
		AvailableCapacity: l.AvailableCapacity,
		Bookable:          l.AvailableCapacity > 0 && len(free) > 0,
	}, nil
}

// PriceQuote prices a stay starting now and records the sample.
func (e *Engine) PriceQuote(ctx context.Context, lotID int64, durationHours int) (*pricing.Quote, error) {
	if err := validDuration(durationHours); err != nil {
		return nil, err
	}
	l, err := e.getLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	now := e.clock()
	recent, err := e.store.Repos().Bookings.CountCreatedSince(ctx, l.ID, now.Add(-velocityWindow))
	if err != nil {
		return nil, fail("count recent bookings", err)
	}
	q := pricing.Calculate(pricing.Input{
		BasePriceCents:    l.BasePriceCents,
		TotalCapacity:     l.TotalCapacity,
		AvailableCapacity: l.AvailableCapacity,
		RecentBookings:    recent,
		DurationHours:     durationHours,
		Now:               now,
	})
	e.recordSample(ctx, l.ID, q)
	return &q, nil
}

type TrendReport struct {
	LotID   int64                   `json:"lot_id"`
	Trend   pricing.Trend           `json:"trend"`
	Samples []pricinghistory.Sample `json:"samples"`
}

// PricingTrend classifies the newest n samples. n defaults to 10 and is
// capped at 100.
func (e *Engine) PricingTrend(ctx context.Context, lotID int64, n int) (*TrendReport, error) {
	if n <= 0 {
		n = defaultTrendSamples
	}
	n = min(n, maxTrendSamples)
	l, err := e.getLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	samples, err := e.store.Repos().PricingSamples.ListRecent(ctx, l.ID, n)
	if err != nil {
		return nil, fail("list pricing samples", err)
	}
	prices := make([]int64, len(samples))
	for i, s := range samples {
		prices[i] = s.DynamicPriceCents
	}
	return &TrendReport{LotID: l.ID, Trend: pricing.TrendOf(prices), Samples: samples}, nil
}

func (e *Engine) ListLots(ctx context.Context) ([]lots.Lot, error) {
	ls, err := e.store.Repos().Lots.List(ctx)
	if err != nil {
		return nil, fail("list lots", err)
	}
	return ls, nil
}

func (e *Engine) GetLot(ctx context.Context, id int64) (*lots.Lot, error) {
	return e.getLot(ctx, id)
}

// AuditTrail lists the lifecycle entries recorded for a booking, oldest first.
func (e *Engine) AuditTrail(ctx context.Context, bookingID int64) ([]audit.Entry, error) {
	if _, err := e.getBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	entries, err := e.store.Repos().Audit.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fail("list audit entries", err)
	}
	return entries, nil
}
