package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkspot/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetForUpdate(ctx context.Context, id int64) (*Booking, error)
	ListActiveOverlapping(ctx context.Context, lotID int64, from, to time.Time) ([]Booking, error)
	CountCreatedSince(ctx context.Context, lotID int64, since time.Time) (int, error)
	CountActiveEndingAfter(ctx context.Context, lotID int64, at time.Time) (int, error)
	SaveCancellation(ctx context.Context, b *Booking) error
	SaveRefundDecision(ctx context.Context, b *Booking) error
	ListPendingRefunds(ctx context.Context, limit, offset int) ([]Booking, int, error)
	ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]Booking, int, error)
	ClaimDueReminders(ctx context.Context, from, to time.Time) ([]Booking, error)
}

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

const bookingColumns = `id, lot_id, requester_id, start_at, duration_hours, total_price_cents,
	slot_id, vehicle, contact, contact_email, status, payment_status, refund_status,
	refund_amount_cents, non_refundable, cancelled_at, cancellation_reason,
	refund_decided_at, refund_rejection_reason, reminder_sent, created_at, updated_at`

// windowEnd is the SQL expression for a booking's exclusive end.
const windowEnd = `(start_at + make_interval(hours => duration_hours))`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.LotID, &b.RequesterID, &b.StartAt, &b.DurationHours, &b.TotalPriceCents,
		&b.SlotID, &b.Vehicle, &b.Contact, &b.ContactEmail, &b.Status, &b.PaymentStatus, &b.RefundStatus,
		&b.RefundAmountCents, &b.NonRefundable, &b.CancelledAt, &b.CancellationReason,
		&b.RefundDecidedAt, &b.RefundRejectionReason, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func collect(rows pgx.Rows) ([]Booking, error) {
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, b *Booking) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO bookings (
			lot_id, requester_id, start_at, duration_hours, total_price_cents,
			slot_id, vehicle, contact, contact_email, status, payment_status, non_refundable
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`,
		b.LotID, b.RequesterID, b.StartAt, b.DurationHours, b.TotalPriceCents,
		b.SlotID, b.Vehicle, b.Contact, b.ContactEmail, b.Status, b.PaymentStatus, b.NonRefundable,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	b, err := scanBooking(r.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, err
}

func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*Booking, error) {
	b, err := scanBooking(r.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	return b, err
}

// ListActiveOverlapping returns pending and confirmed bookings whose window
// intersects [from, to). Touching boundaries do not intersect.
func (r *Repository) ListActiveOverlapping(ctx context.Context, lotID int64, from, to time.Time) ([]Booking, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+bookingColumns+`
		  FROM bookings
		 WHERE lot_id = $1
		   AND status IN ('pending', 'confirmed')
		   AND start_at < $3
		   AND `+windowEnd+` > $2
		 ORDER BY start_at
	`, lotID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list overlapping bookings: %w", err)
	}
	return collect(rows)
}

func (r *Repository) CountCreatedSince(ctx context.Context, lotID int64, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE lot_id = $1 AND created_at >= $2`, lotID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent bookings: %w", err)
	}
	return n, nil
}

func (r *Repository) CountActiveEndingAfter(ctx context.Context, lotID int64, at time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*)
		  FROM bookings
		 WHERE lot_id = $1
		   AND status IN ('pending', 'confirmed')
		   AND `+windowEnd+` > $2
	`, lotID, at).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return n, nil
}

func (r *Repository) SaveCancellation(ctx context.Context, b *Booking) error {
	err := r.q.QueryRow(ctx, `
		UPDATE bookings
		   SET status = $2, payment_status = $3, refund_status = $4, refund_amount_cents = $5,
		       cancelled_at = $6, cancellation_reason = $7, updated_at = now()
		 WHERE id = $1
		RETURNING updated_at
	`, b.ID, b.Status, b.PaymentStatus, b.RefundStatus, b.RefundAmountCents, b.CancelledAt, b.CancellationReason).
		Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("save cancellation: %w", err)
	}
	return nil
}

func (r *Repository) SaveRefundDecision(ctx context.Context, b *Booking) error {
	err := r.q.QueryRow(ctx, `
		UPDATE bookings
		   SET refund_status = $2, payment_status = $3, refund_decided_at = $4,
		       refund_rejection_reason = $5, updated_at = now()
		 WHERE id = $1
		RETURNING updated_at
	`, b.ID, b.RefundStatus, b.PaymentStatus, b.RefundDecidedAt, b.RefundRejectionReason).
		Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("save refund decision: %w", err)
	}
	return nil
}

func (r *Repository) ListPendingRefunds(ctx context.Context, limit, offset int) ([]Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE refund_status = 'pending'`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pending refunds: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+bookingColumns+`
		  FROM bookings
		 WHERE refund_status = 'pending'
		 ORDER BY cancelled_at ASC, id ASC
		 LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending refunds: %w", err)
	}
	out, err := collect(rows)
	return out, total, err
}

func (r *Repository) ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE requester_id = $1`, requesterID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+bookingColumns+`
		  FROM bookings
		 WHERE requester_id = $1
		 ORDER BY start_at DESC, id DESC
		 LIMIT $2 OFFSET $3
	`, requesterID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	out, err := collect(rows)
	return out, total, err
}

// ClaimDueReminders flips reminder_sent for confirmed bookings starting in
// [from, to] and returns exactly the rows it flipped. The flag is checked in
// the same statement, so two concurrent sweeps never claim the same booking.
func (r *Repository) ClaimDueReminders(ctx context.Context, from, to time.Time) ([]Booking, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE bookings
		   SET reminder_sent = true, updated_at = now()
		 WHERE status = 'confirmed'
		   AND reminder_sent = false
		   AND start_at BETWEEN $1 AND $2
		RETURNING `+bookingColumns,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("claim reminders: %w", err)
	}
	return collect(rows)
}
