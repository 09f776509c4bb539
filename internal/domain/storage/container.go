package storage

import (
	"context"
	"fmt"

	"placereview/internal/domain/places"
	"placereview/internal/domain/reviews"
	"placereview/internal/domain/users"
	"placereview/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

// Store is the persistence contract the review engine runs against.
type Store interface {
	Places() places.Store
	Reviews() reviews.Store
	Users() users.Store
	// WithTx runs fn against a transaction-scoped Store. Calling WithTx on
	// a transaction-scoped Store runs fn inside the existing transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type Container struct {
	pool    dbx.Pool // nil for tx-scoped containers
	places  places.Store
	reviews reviews.Store
	users   users.Store
}

func NewContainer(pool dbx.Pool) *Container {
	c := newRepos(pool)
	c.pool = pool
	return c
}

func newRepos(q dbx.Querier) *Container {
	return &Container{
		places:  places.NewRepository(q),
		reviews: reviews.NewRepository(q),
		users:   users.NewRepository(q),
	}
}

func (c *Container) Places() places.Store   { return c.places }
func (c *Container) Reviews() reviews.Store { return c.reviews }
func (c *Container) Users() users.Store     { return c.users }

// WithTx runs a unit of work atomically.
func (c *Container) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if c.pool == nil {
		return fn(c)
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) // no-op once committed
	}()

	if err := fn(newRepos(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
