package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Querier is the subset of pgx execution methods shared by the pool and a
// transaction, letting every query method run in either context.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries bundles every query method over a Querier. Obtain one bound to the
// pool via New, or bound to a transaction inside Store.WithTx.
type Queries struct {
	db Querier
}

// Store is the durable room store. It embeds pool-bound Queries and owns the
// transaction helper.
type Store struct {
	Queries
	pool *pgxpool.Pool
}

// New creates a Store bound to the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Queries: Queries{db: pool},
		pool:    pool,
	}
}

// WithTx runs fn inside a single database transaction. The transaction is
// rolled back if fn returns an error or panics, committed otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&Queries{db: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
