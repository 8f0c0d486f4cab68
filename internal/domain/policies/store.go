package policies

import (
	"context"
	"errors"
	"fmt"

	"parkspot/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	GetActive(ctx context.Context) (*Policy, error)
}

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

func (r *Repository) GetActive(ctx context.Context) (*Policy, error) {
	var p Policy
	err := r.q.QueryRow(ctx, `
		SELECT id, full_refund_hours, partial_refund_hours, partial_refund_percentage,
		       non_cancellable_hours, allow_after_start, is_active, created_at
		  FROM cancellation_policies
		 WHERE is_active
		 LIMIT 1
	`).Scan(
		&p.ID, &p.FullRefundHours, &p.PartialRefundHours, &p.PartialRefundPercentage,
		&p.NonCancellableHours, &p.AllowAfterStart, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active policy: %w", err)
	}
	return &p, nil
}
