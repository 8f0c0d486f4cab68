package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"parkspot/internal/domain/audit"
	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/lots"
	"parkspot/internal/domain/paymentsrepo"
	"parkspot/internal/domain/policies"
	"parkspot/internal/domain/pricinghistory"
)

// Memory is a process-local UnitOfWork. Transactions are serialised by a
// single mutex and roll back to a snapshot on error, which gives the same
// all-or-nothing behaviour as the Postgres container. Used by tests and by
// STORAGE_DRIVER=memory.
type Memory struct {
	mu      sync.Mutex
	data    *memData
	repos   *Repos
	txRepos *Repos
}

type memData struct {
	seq         int64
	lots        map[int64]lots.Lot
	bookings    map[int64]bookings.Booking
	policy      *policies.Policy
	samples     []pricinghistory.Sample
	payments    []paymentsrepo.Transaction
	paymentLogs []paymentsrepo.Log
	audit       []audit.Entry
	pushTokens  map[int64][]string
}

func (d *memData) nextID() int64 {
	d.seq++
	return d.seq
}

func (d *memData) clone() *memData {
	c := &memData{
		seq:         d.seq,
		lots:        make(map[int64]lots.Lot, len(d.lots)),
		bookings:    make(map[int64]bookings.Booking, len(d.bookings)),
		samples:     append([]pricinghistory.Sample(nil), d.samples...),
		payments:    append([]paymentsrepo.Transaction(nil), d.payments...),
		paymentLogs: append([]paymentsrepo.Log(nil), d.paymentLogs...),
		audit:       append([]audit.Entry(nil), d.audit...),
		pushTokens:  make(map[int64][]string, len(d.pushTokens)),
	}
	for k, v := range d.lots {
		c.lots[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = v
	}
	for k, v := range d.pushTokens {
		c.pushTokens[k] = append([]string(nil), v...)
	}
	if d.policy != nil {
		p := *d.policy
		c.policy = &p
	}
	return c
}

func NewMemory() *Memory {
	m := &Memory{
		data: &memData{
			lots:       make(map[int64]lots.Lot),
			bookings:   make(map[int64]bookings.Booking),
			pushTokens: make(map[int64][]string),
		},
	}
	m.repos = m.reposFor(memView{m: m})
	m.txRepos = m.reposFor(memView{m: m, inTx: true})
	return m
}

func (m *Memory) reposFor(v memView) *Repos {
	return &Repos{
		Lots:           memLots{v},
		Bookings:       memBookings{v},
		Policies:       memPolicies{v},
		PricingSamples: memSamples{v},
		Payments:       memPayments{v},
		Audit:          memAudit{v},
		PushTokens:     memPushTokens{v},
	}
}

func (m *Memory) Repos() *Repos { return m.repos }

func (m *Memory) WithTx(ctx context.Context, fn func(r *Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := m.data.clone()
	if err := fn(m.txRepos); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// AddLot stores a lot, assigning an id when none is set.
func (m *Memory) AddLot(l lots.Lot) lots.Lot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.ID == 0 {
		l.ID = m.data.nextID()
	}
	now := time.Now()
	l.CreatedAt, l.UpdatedAt = now, now
	m.data.lots[l.ID] = l
	return l
}

// AddBooking stores a booking row as-is, e.g. a legacy booking without a slot.
func (m *Memory) AddBooking(b bookings.Booking) bookings.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.ID == 0 {
		b.ID = m.data.nextID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	b.UpdatedAt = b.CreatedAt
	m.data.bookings[b.ID] = b
	return b
}

// SetPolicy replaces the active policy. nil clears it.
func (m *Memory) SetPolicy(p *policies.Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p == nil {
		m.data.policy = nil
		return
	}
	cp := *p
	cp.IsActive = true
	m.data.policy = &cp
}

type memView struct {
	m    *Memory
	inTx bool
}

func (v memView) with(fn func(d *memData) error) error {
	if !v.inTx {
		v.m.mu.Lock()
		defer v.m.mu.Unlock()
	}
	return fn(v.m.data)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type memLots struct{ v memView }

func (s memLots) GetByID(_ context.Context, id int64) (*lots.Lot, error) {
	var out *lots.Lot
	err := s.v.with(func(d *memData) error {
		l, ok := d.lots[id]
		if !ok {
			return lots.ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (s memLots) GetForUpdate(ctx context.Context, id int64) (*lots.Lot, error) {
	return s.GetByID(ctx, id)
}

func (s memLots) List(_ context.Context) ([]lots.Lot, error) {
	var out []lots.Lot
	err := s.v.with(func(d *memData) error {
		for _, l := range d.lots {
			out = append(out, l)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (s memLots) update(id int64, fn func(l *lots.Lot) error) error {
	return s.v.with(func(d *memData) error {
		l, ok := d.lots[id]
		if !ok {
			return lots.ErrNotFound
		}
		if err := fn(&l); err != nil {
			return err
		}
		l.UpdatedAt = time.Now()
		d.lots[id] = l
		return nil
	})
}

func (s memLots) DecrementAvailable(_ context.Context, id int64) error {
	return s.update(id, func(l *lots.Lot) error {
		if l.AvailableCapacity <= 0 {
			return lots.ErrNoCapacity
		}
		l.AvailableCapacity--
		return nil
	})
}

func (s memLots) IncrementAvailable(_ context.Context, id int64) error {
	return s.update(id, func(l *lots.Lot) error {
		l.AvailableCapacity = min(l.AvailableCapacity+1, l.TotalCapacity)
		return nil
	})
}

func (s memLots) SetAvailable(_ context.Context, id int64, available int) error {
	return s.update(id, func(l *lots.Lot) error {
		l.AvailableCapacity = max(0, min(available, l.TotalCapacity))
		return nil
	})
}

type memBookings struct{ v memView }

func (s memBookings) Create(_ context.Context, b *bookings.Booking) error {
	return s.v.with(func(d *memData) error {
		b.ID = d.nextID()
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now()
		}
		b.UpdatedAt = b.CreatedAt
		d.bookings[b.ID] = *b
		return nil
	})
}

func (s memBookings) GetByID(_ context.Context, id int64) (*bookings.Booking, error) {
	var out *bookings.Booking
	err := s.v.with(func(d *memData) error {
		b, ok := d.bookings[id]
		if !ok {
			return bookings.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (s memBookings) GetForUpdate(ctx context.Context, id int64) (*bookings.Booking, error) {
	return s.GetByID(ctx, id)
}

func (s memBookings) filter(keep func(b *bookings.Booking) bool) []bookings.Booking {
	var out []bookings.Booking
	_ = s.v.with(func(d *memData) error {
		for _, b := range d.bookings {
			if keep(&b) {
				out = append(out, b)
			}
		}
		return nil
	})
	return out
}

func (s memBookings) ListActiveOverlapping(_ context.Context, lotID int64, from, to time.Time) ([]bookings.Booking, error) {
	out := s.filter(func(b *bookings.Booking) bool {
		return b.LotID == lotID && b.Status.Occupies() && b.StartAt.Before(to) && b.EndAt().After(from)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (s memBookings) CountCreatedSince(_ context.Context, lotID int64, since time.Time) (int, error) {
	return len(s.filter(func(b *bookings.Booking) bool {
		return b.LotID == lotID && !b.CreatedAt.Before(since)
	})), nil
}

func (s memBookings) CountActiveEndingAfter(_ context.Context, lotID int64, at time.Time) (int, error) {
	return len(s.filter(func(b *bookings.Booking) bool {
		return b.LotID == lotID && b.Status.Occupies() && b.EndAt().After(at)
	})), nil
}

func (s memBookings) save(b *bookings.Booking, apply func(stored *bookings.Booking)) error {
	return s.v.with(func(d *memData) error {
		stored, ok := d.bookings[b.ID]
		if !ok {
			return bookings.ErrNotFound
		}
		apply(&stored)
		stored.UpdatedAt = time.Now()
		b.UpdatedAt = stored.UpdatedAt
		d.bookings[b.ID] = stored
		return nil
	})
}

func (s memBookings) SaveCancellation(_ context.Context, b *bookings.Booking) error {
	return s.save(b, func(stored *bookings.Booking) {
		stored.Status = b.Status
		stored.PaymentStatus = b.PaymentStatus
		stored.RefundStatus = b.RefundStatus
		stored.RefundAmountCents = b.RefundAmountCents
		stored.CancelledAt = b.CancelledAt
		stored.CancellationReason = b.CancellationReason
	})
}

func (s memBookings) SaveRefundDecision(_ context.Context, b *bookings.Booking) error {
	return s.save(b, func(stored *bookings.Booking) {
		stored.RefundStatus = b.RefundStatus
		stored.PaymentStatus = b.PaymentStatus
		stored.RefundDecidedAt = b.RefundDecidedAt
		stored.RefundRejectionReason = b.RefundRejectionReason
	})
}

func (s memBookings) ListPendingRefunds(_ context.Context, limit, offset int) ([]bookings.Booking, int, error) {
	out := s.filter(func(b *bookings.Booking) bool { return b.RefundPending() })
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].CancelledAt, out[j].CancelledAt
		if ci != nil && cj != nil && !ci.Equal(*cj) {
			return ci.Before(*cj)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, limit, offset), len(out), nil
}

func (s memBookings) ListByRequester(_ context.Context, requesterID int64, limit, offset int) ([]bookings.Booking, int, error) {
	out := s.filter(func(b *bookings.Booking) bool { return b.RequesterID == requesterID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.After(out[j].StartAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, limit, offset), len(out), nil
}

func (s memBookings) ClaimDueReminders(_ context.Context, from, to time.Time) ([]bookings.Booking, error) {
	var out []bookings.Booking
	err := s.v.with(func(d *memData) error {
		for id, b := range d.bookings {
			if b.Status != bookings.StatusConfirmed || b.ReminderSent {
				continue
			}
			if b.StartAt.Before(from) || b.StartAt.After(to) {
				continue
			}
			b.ReminderSent = true
			b.UpdatedAt = time.Now()
			d.bookings[id] = b
			out = append(out, b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, err
}

type memPolicies struct{ v memView }

func (s memPolicies) GetActive(_ context.Context) (*policies.Policy, error) {
	var out *policies.Policy
	err := s.v.with(func(d *memData) error {
		if d.policy == nil {
			return policies.ErrNotFound
		}
		p := *d.policy
		out = &p
		return nil
	})
	return out, err
}

type memSamples struct{ v memView }

func (s memSamples) Append(_ context.Context, sample *pricinghistory.Sample) error {
	return s.v.with(func(d *memData) error {
		sample.ID = d.nextID()
		d.samples = append(d.samples, *sample)
		return nil
	})
}

func (s memSamples) ListRecent(_ context.Context, lotID int64, n int) ([]pricinghistory.Sample, error) {
	var out []pricinghistory.Sample
	err := s.v.with(func(d *memData) error {
		for _, sample := range d.samples {
			if sample.LotID == lotID {
				out = append(out, sample)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SampledAt.Equal(out[j].SampledAt) {
			return out[i].SampledAt.After(out[j].SampledAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, n, 0), err
}

type memPayments struct{ v memView }

func (s memPayments) Create(_ context.Context, t *paymentsrepo.Transaction) error {
	return s.v.with(func(d *memData) error {
		t.ID = d.nextID()
		if t.Currency == "" {
			t.Currency = "USD"
		}
		t.CreatedAt = time.Now()
		d.payments = append(d.payments, *t)
		return nil
	})
}

func (s memPayments) ListByBooking(_ context.Context, bookingID int64) ([]paymentsrepo.Transaction, error) {
	var out []paymentsrepo.Transaction
	err := s.v.with(func(d *memData) error {
		for _, t := range d.payments {
			if t.BookingID == bookingID {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, err
}

func (s memPayments) InsertLog(_ context.Context, transactionID int64, logType paymentsrepo.LogType, payload any) error {
	return s.v.with(func(d *memData) error {
		d.paymentLogs = append(d.paymentLogs, paymentsrepo.Log{
			ID:            d.nextID(),
			TransactionID: transactionID,
			LogType:       logType,
			Payload:       payload,
			CreatedAt:     time.Now(),
		})
		return nil
	})
}

type memAudit struct{ v memView }

func (s memAudit) Append(_ context.Context, e *audit.Entry) error {
	return s.v.with(func(d *memData) error {
		e.ID = d.nextID()
		e.CreatedAt = time.Now()
		d.audit = append(d.audit, *e)
		return nil
	})
}

func (s memAudit) ListByBooking(_ context.Context, bookingID int64) ([]audit.Entry, error) {
	var out []audit.Entry
	err := s.v.with(func(d *memData) error {
		for _, e := range d.audit {
			if e.BookingID == bookingID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

type memPushTokens struct{ v memView }

func (s memPushTokens) Save(_ context.Context, requesterID int64, token string, _ json.RawMessage) error {
	return s.v.with(func(d *memData) error {
		for _, t := range d.pushTokens[requesterID] {
			if t == token {
				return nil
			}
		}
		d.pushTokens[requesterID] = append(d.pushTokens[requesterID], token)
		return nil
	})
}

func (s memPushTokens) Remove(_ context.Context, requesterID int64, token string) error {
	return s.v.with(func(d *memData) error {
		kept := d.pushTokens[requesterID][:0]
		for _, t := range d.pushTokens[requesterID] {
			if t != token {
				kept = append(kept, t)
			}
		}
		d.pushTokens[requesterID] = kept
		return nil
	})
}

func (s memPushTokens) Discard(_ context.Context, tokens []string) error {
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}
	return s.v.with(func(d *memData) error {
		for uid, list := range d.pushTokens {
			kept := make([]string, 0, len(list))
			for _, t := range list {
				if !drop[t] {
					kept = append(kept, t)
				}
			}
			d.pushTokens[uid] = kept
		}
		return nil
	})
}

func (s memPushTokens) TokensFor(_ context.Context, requesterIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string)
	err := s.v.with(func(d *memData) error {
		for _, id := range requesterIDs {
			if list := d.pushTokens[id]; len(list) > 0 {
				result[id] = append([]string(nil), list...)
			}
		}
		return nil
	})
	return result, err
}

var (
	_ UnitOfWork = (*Memory)(nil)
	_ UnitOfWork = (*Container)(nil)
)
