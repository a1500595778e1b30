package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "reservio/pkg/errors"
)

// TransactionFunc runs with a transaction bound to ctx; every repository
// call made with that ctx joins the same transaction.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type pgxTransactionManager struct {
	pool       *pgxpool.Pool
	maxRetries int
}

func NewTransactionManager(pool *pgxpool.Pool, maxRetries int) TransactionManager {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &pgxTransactionManager{
		pool:       pool,
		maxRetries: maxRetries,
	}
}

// ExecuteTransaction runs fn atomically. Serialization and deadlock
// failures are retried up to maxRetries times, transparent to the caller;
// any error from fn rolls the whole transaction back.
func (m *pgxTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	var lastErr error

	for attempt := 0; attempt < m.maxRetries; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if apperrors.IsAppError(err) {
			return err
		}
		if !isRetryable(err) {
			return fmt.Errorf("transaction failed: %w", err)
		}
		lastErr = err
	}

	return fmt.Errorf("transaction failed after %d attempts: %w", m.maxRetries, lastErr)
}

func (m *pgxTransactionManager) runOnce(ctx context.Context, fn TransactionFunc) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(withTx(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
