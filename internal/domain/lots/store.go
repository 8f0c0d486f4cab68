package lots

import (
	"context"
	"errors"
	"fmt"

	"parkspot/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	GetByID(ctx context.Context, id int64) (*Lot, error)
	GetForUpdate(ctx context.Context, id int64) (*Lot, error)
	List(ctx context.Context) ([]Lot, error)
	DecrementAvailable(ctx context.Context, id int64) error
	IncrementAvailable(ctx context.Context, id int64) error
	SetAvailable(ctx context.Context, id int64, available int) error
}

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

const lotColumns = `id, name, total_capacity, available_capacity, base_price_cents,
	zones, slots_per_zone, created_at, updated_at`

func scanLot(row pgx.Row) (*Lot, error) {
	var l Lot
	err := row.Scan(
		&l.ID, &l.Name, &l.TotalCapacity, &l.AvailableCapacity, &l.BasePriceCents,
		&l.Zones, &l.SlotsPerZone, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Lot, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return l, err
}

// GetForUpdate locks the lot row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lock lot: %w", err)
	}
	return l, err
}

func (r *Repository) List(ctx context.Context) ([]Lot, error) {
	rows, err := r.q.Query(ctx, `SELECT `+lotColumns+` FROM lots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var out []Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// DecrementAvailable only succeeds while the counter is positive.
func (r *Repository) DecrementAvailable(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE lots
		   SET available_capacity = available_capacity - 1, updated_at = now()
		 WHERE id = $1 AND available_capacity > 0
	`, id)
	if err != nil {
		return fmt.Errorf("decrement availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoCapacity
	}
	return nil
}

// IncrementAvailable frees one spot, never past the lot's total.
func (r *Repository) IncrementAvailable(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE lots
		   SET available_capacity = LEAST(available_capacity + 1, total_capacity), updated_at = now()
		 WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("increment availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SetAvailable(ctx context.Context, id int64, available int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE lots
		   SET available_capacity = GREATEST(0, LEAST($2, total_capacity)), updated_at = now()
		 WHERE id = $1
	`, id, available)
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
