package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"parkspot/internal/infra/dbx"
)

type Store interface {
	Append(ctx context.Context, e *Entry) error
	ListByBooking(ctx context.Context, bookingID int64) ([]Entry, error)
}

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

func (r *Repository) Append(ctx context.Context, e *Entry) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}
	err = r.q.QueryRow(ctx, `
		INSERT INTO audit_log (booking_id, lot_id, actor_id, action, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, e.BookingID, e.LotID, e.ActorID, e.Action, detail).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID int64) ([]Entry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, booking_id, lot_id, actor_id, action, detail, created_at
		  FROM audit_log
		 WHERE booking_id = $1
		 ORDER BY id ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.BookingID, &e.LotID, &e.ActorID, &e.Action, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
