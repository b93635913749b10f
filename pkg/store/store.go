// Package store implements the PostgreSQL repositories shared by the
// synchronizer, downloader and notifier.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the query surface shared by *pgxpool.Pool and pgx.Tx, so every
// repository method works both standalone and inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store gives access to all repositories. A Store obtained from WithTx runs
// every call on the same transaction.
type Store struct {
	db     querier
	pool   *pgxpool.Pool // nil for tx-bound stores
	logger *slog.Logger
}

// New builds a Store over the shared connection pool.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{db: pool, pool: pool, logger: logger.With("component", "store")}
}

// WithTx runs fn with a transaction-bound Store. The transaction commits when
// fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(*Store) error) error {
	if s.pool == nil {
		return fmt.Errorf("already inside a transaction")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Store{db: tx, logger: s.logger}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
