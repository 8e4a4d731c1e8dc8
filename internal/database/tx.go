package database

import (
	"context"
	"database/sql"
	"fmt"
)

// WithinTx runs fn inside a single transaction: either every statement fn
// issues commits together, or the whole unit of work rolls back. Errors from
// fn are returned unwrapped so sentinel checks keep working across the
// transaction boundary.
func WithinTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Transactor runs a unit of work inside a transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

// NewTransactor wraps db in a Transactor backed by WithinTx.
func NewTransactor(db *sql.DB) Transactor {
	return sqlTransactor{db: db}
}

func (t sqlTransactor) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return WithinTx(ctx, t.db, fn)
}
