package storage

import (
	"context"
	"fmt"

	"parkspot/internal/domain/audit"
	"parkspot/internal/domain/bookings"
	"parkspot/internal/domain/lots"
	"parkspot/internal/domain/paymentsrepo"
	"parkspot/internal/domain/policies"
	"parkspot/internal/domain/pricinghistory"
	"parkspot/internal/domain/pushtokens"
	"parkspot/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repos is one coherent set of repositories, either bound to the pool or to
// a single transaction.
type Repos struct {
	Lots           lots.Store
	Bookings       bookings.Store
	Policies       policies.Store
	PricingSamples pricinghistory.Store
	Payments       paymentsrepo.Store
	Audit          audit.Store
	PushTokens     pushtokens.Store
}

// UnitOfWork hands out repositories and runs functions atomically. Inside fn
// only the supplied tx-scoped repos may be used.
type UnitOfWork interface {
	Repos() *Repos
	WithTx(ctx context.Context, fn func(r *Repos) error) error
}

func newRepos(q dbx.Querier) *Repos {
	return &Repos{
		Lots:           lots.NewRepository(q),
		Bookings:       bookings.NewRepository(q),
		Policies:       policies.NewRepository(q),
		PricingSamples: pricinghistory.NewRepository(q),
		Payments:       paymentsrepo.NewRepository(q),
		Audit:          audit.NewRepository(q),
		PushTokens:     pushtokens.NewRepository(q),
	}
}

type Container struct {
	pool  *pgxpool.Pool
	repos *Repos
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:  db,
		repos: newRepos(db),
	}
}

func (c *Container) Repos() *Repos { return c.repos }

// WithTx runs a unit-of-work atomically. Row locks taken with FOR UPDATE are
// held until commit or rollback.
func (c *Container) WithTx(ctx context.Context, fn func(r *Repos) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container pool is nil (did you forget to set pool in NewContainer?)")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) // no-op once committed
	}()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
