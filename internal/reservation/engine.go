// Package reservation runs the booking lifecycle: creation with payment
// capture, policy-driven cancellation, administrative refund decisions and
// the periodic reminder and capacity sweeps.
package reservation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"parkspot/internal/availability"
	"parkspot/internal/domain/audit"
	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/lots"
	"parkspot/internal/domain/pricinghistory"
	"parkspot/internal/domain/storage"
	"parkspot/internal/notifications"
	"parkspot/internal/payments"
	"parkspot/internal/pricing"
	"parkspot/internal/reference"
)

const (
	MinDurationHours = 1
	MaxDurationHours = 24
	MaxAdvanceDays   = 90

	velocityWindow  = time.Hour
	reminderLead    = time.Hour
	reminderSlack   = 10 * time.Minute
	notifyTimeout   = 30 * time.Second
	defaultCurrency = "USD"
)

type Engine struct {
	store    storage.UnitOfWork
	gateway  payments.Gateway
	notifier notifications.Notifier
	refs     *reference.Encoder
	logger   *zap.SugaredLogger

	now      func() time.Time
	loc      *time.Location
	currency string

	inflight sync.WaitGroup
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone used for calendar dates and peak hours.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithCurrency(code string) Option {
	return func(e *Engine) {
		if code != "" {
			e.currency = code
		}
	}
}

func New(
	store storage.UnitOfWork,
	gateway payments.Gateway,
	notifier notifications.Notifier,
	refs *reference.Encoder,
	logger *zap.SugaredLogger,
	opts ...Option,
) *Engine {
	if notifier == nil {
		notifier = notifications.Nop
	}
	e := &Engine{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		refs:     refs,
		logger:   logger,
		now:      time.Now,
		loc:      time.UTC,
		currency: defaultCurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wait blocks until notifications dispatched so far have been delivered.
func (e *Engine) Wait() { e.inflight.Wait() }

func (e *Engine) Location() *time.Location { return e.loc }

func (e *Engine) clock() time.Time { return e.now().In(e.loc) }

func gridOf(l *lots.Lot) availability.Grid {
	if len(l.Zones) == 0 || l.SlotsPerZone <= 0 {
		return availability.DefaultGrid()
	}
	return availability.Grid{Zones: l.Zones, PerZone: l.SlotsPerZone}
}

func occupantsOf(bs []bookings.Booking) []availability.Occupant {
	out := make([]availability.Occupant, 0, len(bs))
	for i := range bs {
		out = append(out, availability.Occupant{
			SlotID: bs[i].Slot(),
			Window: availability.NewWindow(bs[i].StartAt, bs[i].DurationHours),
			Active: bs[i].Status.Occupies(),
		})
	}
	return out
}

func (e *Engine) reference(id int64) string {
	if e.refs == nil {
		return ""
	}
	ref, err := e.refs.Encode(id)
	if err != nil {
		e.logger.Errorw("encode booking reference", "booking_id", id, "error", err)
		return ""
	}
	return ref
}

// appendAudit runs after commit; a failure is logged and never undoes the
// transition it describes.
func (e *Engine) appendAudit(ctx context.Context, entry *audit.Entry) {
	if err := e.store.Repos().Audit.Append(ctx, entry); err != nil {
		e.logger.Errorw("append audit entry", "booking_id", entry.BookingID, "action", entry.Action, "error", err)
	}
}

func (e *Engine) recordSample(ctx context.Context, lotID int64, q pricing.Quote) {
	s := &pricinghistory.Sample{
		LotID:               lotID,
		SampledAt:           q.ComputedAt,
		BasePriceCents:      q.BasePriceCents,
		DynamicPriceCents:   q.FinalPriceCents,
		OccupancyRate:       q.OccupancyRate,
		TimeMultiplier:      q.TimeMultiplier,
		VelocityMultiplier:  q.VelocityMultiplier,
		OccupancyMultiplier: q.OccupancyMultiplier,
	}
	if err := e.store.Repos().PricingSamples.Append(ctx, s); err != nil {
		e.logger.Warnw("append pricing sample", "lot_id", lotID, "error", err)
	}
}

func (e *Engine) notice(event notifications.Event, b *bookings.Booking) notifications.Notice {
	n := notifications.Notice{
		Event:       event,
		BookingID:   b.ID,
		Reference:   e.reference(b.ID),
		RequesterID: b.RequesterID,
		Contact:     b.Contact,
		LotID:       b.LotID,
		SlotID:      b.Slot(),
		Vehicle:     b.Vehicle,
		StartAt:     b.StartAt,
		EndAt:       b.EndAt(),
		AmountCents: b.TotalPriceCents,
		RefundCents: b.RefundAmountCents,
		OccurredAt:  e.clock(),
	}
	if b.ContactEmail != nil {
		n.Email = *b.ContactEmail
	}
	return n
}

// deliver fills in the lot name and hands the notice to the notifier.
func (e *Engine) deliver(ctx context.Context, n notifications.Notice) error {
	if n.LotName == "" {
		if l, err := e.store.Repos().Lots.GetByID(ctx, n.LotID); err == nil {
			n.LotName = l.Name
		}
	}
	return e.notifier.Notify(ctx, n)
}

// dispatch delivers in the background. Channel failures are logged only; the
// booking state they describe is already committed.
func (e *Engine) dispatch(ctx context.Context, n notifications.Notice) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := e.deliver(ctx, n); err != nil {
			e.logger.Warnw("notification delivery failed", "event", n.Event, "booking_id", n.BookingID, "error", err)
		}
	}()
}
