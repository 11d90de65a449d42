package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is what the repositories need from *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execGuarded runs a guarded UPDATE and returns noRows when the guard matched nothing.
func execGuarded(ctx context.Context, db DBTX, noRows error, query string, args ...any) error {
	result, err := GetExecutor(ctx, db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return noRows
	}
	return nil
}
