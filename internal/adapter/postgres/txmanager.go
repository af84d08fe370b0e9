package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/pms-backend/internal/domain"
)

// TxManager runs callbacks inside database transactions. The transaction is
// handed to the callback explicitly. Nested RunInTx calls open independent
// transactions and are a bug.
type TxManager struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// TxOption customizes a TxManager.
type TxOption func(*TxManager)

// WithIsoLevel overrides the isolation level (default: serializable).
func WithIsoLevel(level pgx.TxIsoLevel) TxOption {
	return func(m *TxManager) { m.opts.IsoLevel = level }
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool, opts ...TxOption) *TxManager {
	m := &TxManager{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.Serializable}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pool returns the underlying pool.
func (m *TxManager) Pool() *pgxpool.Pool { return m.pool }

// RunInTx executes fn within a database transaction.
// On success: commits.
// On error from fn: rolls back and returns the error.
// On panic from fn: rolls back and re-panics.
// Serialization failures are returned wrapping domain.ErrTxAborted; there is no retry.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		err = abortedOnSerialization(err)
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return MapError(err, "transaction", "commit")
	}

	return nil
}

// abortedOnSerialization marks a serialization failure or deadlock raised by
// any statement of the transaction as domain.ErrTxAborted.
func abortedOnSerialization(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || errors.Is(err, domain.ErrTxAborted) {
		return err
	}
	if pgErr.Code == "40001" || pgErr.Code == "40P01" {
		return fmt.Errorf("%w: %w", domain.ErrTxAborted, err)
	}
	return err
}
