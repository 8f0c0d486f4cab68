package paymentsrepo

import (
	"context"
	"fmt"
	"time"

	"parkspot/internal/infra/dbx"
)

const QueryTimeoutDuration = time.Second * 5

type Store interface {
	Create(ctx context.Context, t *Transaction) error
	ListByBooking(ctx context.Context, bookingID int64) ([]Transaction, error)
	InsertLog(ctx context.Context, transactionID int64, logType LogType, payload any) error
}

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

func (r *Repository) Create(ctx context.Context, t *Transaction) error {
	if err := r.q.QueryRow(ctx, `
		INSERT INTO payments (booking_id, provider, provider_ref, kind, method, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, ''), 'USD'), $8)
		RETURNING id, currency, created_at
	`, t.BookingID, t.Provider, t.ProviderRef, t.Kind, t.Method, t.AmountCents, t.Currency, t.Status).
		Scan(&t.ID, &t.Currency, &t.CreatedAt); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID int64) ([]Transaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, booking_id, provider, provider_ref, kind, method, amount_cents, currency, status, created_at
		FROM payments WHERE booking_id=$1 ORDER BY id ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.BookingID, &t.Provider, &t.ProviderRef, &t.Kind, &t.Method,
			&t.AmountCents, &t.Currency, &t.Status, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
