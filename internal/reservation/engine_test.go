package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parkspot/internal/domain/lots"
	"parkspot/internal/domain/paymentsrepo"
	"parkspot/internal/domain/storage"
	"parkspot/internal/notifications"
	"parkspot/internal/payments"
	"parkspot/internal/reference"
)

// Wednesday, outside the peak bands.
var testNow = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu      sync.Mutex
	notices []notifications.Notice
}

func (r *recorder) Notify(_ context.Context, n notifications.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recorder) events() []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notifications.Event, 0, len(r.notices))
	for _, n := range r.notices {
		out = append(out, n.Event)
	}
	return out
}

func (r *recorder) last(event notifications.Event) (notifications.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.notices) - 1; i >= 0; i-- {
		if r.notices[i].Event == event {
			return r.notices[i], true
		}
	}
	return notifications.Notice{}, false
}

type fixture struct {
	store   *storage.Memory
	gw      *payments.Sandbox
	notices *recorder
	engine  *Engine
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	refs, err := reference.New("test-salt", reference.DefaultMinLength)
	require.NoError(t, err)

	f := &fixture{
		store:   storage.NewMemory(),
		gw:      payments.NewSandbox(),
		notices: &recorder{},
		now:     testNow,
	}
	f.engine = New(f.store, f.gw, f.notices, refs, zap.NewNop().Sugar(),
		WithClock(func() time.Time { return f.now }),
	)
	t.Cleanup(f.engine.Wait)
	return f
}

func (f *fixture) addLot(total, available int) lots.Lot {
	return f.store.AddLot(lots.Lot{
		Name:              "Harbour Street",
		TotalCapacity:     total,
		AvailableCapacity: available,
		BasePriceCents:    500,
		Zones:             []string{"A", "B"},
		SlotsPerZone:      10,
	})
}

func (f *fixture) lot(t *testing.T, id int64) *lots.Lot {
	t.Helper()
	l, err := f.store.Repos().Lots.GetByID(context.Background(), id)
	require.NoError(t, err)
	return l
}

// request builds a valid request for a window starting at start.
func request(lotID int64, start time.Time, hours int, slot string) CreateRequest {
	return CreateRequest{
		LotID:         lotID,
		StartDate:     start.Format(dateLayout),
		StartTime:     start.Format(clockLayout),
		DurationHours: hours,
		SlotID:        slot,
		Vehicle:       "ba 2 pa 4455",
		Contact:       "+977 (980) 123-4567",
		Email:         "driver@example.com",
		RequesterID:   7,
	}
}

func (f *fixture) create(t *testing.T, req CreateRequest) *Reservation {
	t.Helper()
	res, err := f.engine.CreateReservation(context.Background(), req)
	require.NoError(t, err)
	return res
}

func (f *fixture) payments(t *testing.T, bookingID int64) []paymentsrepo.Transaction {
	t.Helper()
	txns, err := f.store.Repos().Payments.ListByBooking(context.Background(), bookingID)
	require.NoError(t, err)
	return txns
}

// recordingGateway remembers the charges it captured.
type recordingGateway struct {
	*payments.Sandbox
	mu      sync.Mutex
	charges []payments.ChargeResult
}

func (g *recordingGateway) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	res, err := g.Sandbox.Charge(ctx, req)
	if err == nil {
		g.mu.Lock()
		g.charges = append(g.charges, res)
		g.mu.Unlock()
	}
	return res, err
}

// brokenPayments fails every insert into the payments ledger.
type brokenPayments struct {
	paymentsrepo.Store
}

func (brokenPayments) Create(context.Context, *paymentsrepo.Transaction) error {
	return errors.New("payments table unavailable")
}

type brokenLedgerStore struct {
	*storage.Memory
}

func (s brokenLedgerStore) WithTx(ctx context.Context, fn func(r *storage.Repos) error) error {
	return s.Memory.WithTx(ctx, func(r *storage.Repos) error {
		wrapped := *r
		wrapped.Payments = brokenPayments{r.Payments}
		return fn(&wrapped)
	})
}
