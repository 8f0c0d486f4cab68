package pricinghistory

import (
	"context"
	"fmt"

	"parkspot/internal/infra/dbx"
)

type Store interface {
	Append(ctx context.Context, s *Sample) error
	ListRecent(ctx context.Context, lotID int64, n int) ([]Sample, error)
}

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

func (r *Repository) Append(ctx context.Context, s *Sample) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO pricing_samples (
			lot_id, sampled_at, base_price_cents, dynamic_price_cents, occupancy_rate,
			time_multiplier, velocity_multiplier, occupancy_multiplier
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, s.LotID, s.SampledAt, s.BasePriceCents, s.DynamicPriceCents, s.OccupancyRate,
		s.TimeMultiplier, s.VelocityMultiplier, s.OccupancyMultiplier).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("append pricing sample: %w", err)
	}
	return nil
}

// ListRecent returns up to n samples for the lot, newest first.
func (r *Repository) ListRecent(ctx context.Context, lotID int64, n int) ([]Sample, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, lot_id, sampled_at, base_price_cents, dynamic_price_cents, occupancy_rate,
		       time_multiplier, velocity_multiplier, occupancy_multiplier
		  FROM pricing_samples
		 WHERE lot_id = $1
		 ORDER BY sampled_at DESC, id DESC
		 LIMIT $2
	`, lotID, n)
	if err != nil {
		return nil, fmt.Errorf("list pricing samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(
			&s.ID, &s.LotID, &s.SampledAt, &s.BasePriceCents, &s.DynamicPriceCents, &s.OccupancyRate,
			&s.TimeMultiplier, &s.VelocityMultiplier, &s.OccupancyMultiplier,
		); err != nil {
			return nil, fmt.Errorf("scan pricing sample: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
