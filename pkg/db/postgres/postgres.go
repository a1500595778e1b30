package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations shared by *pgxpool.Pool and
// pgx.Tx, so repositories run the same code inside and outside a
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func Connect(ctx context.Context, dsn string, connTimeout time.Duration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, connTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

type txContextKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// QuerierFrom returns the transaction bound to ctx when there is one,
// falling back to the pool. Repositories must route every statement
// through this so a conflict check and its subsequent write observe the
// same snapshot.
func QuerierFrom(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// lockClassBookings namespaces booking advisory locks away from any other
// advisory lock user of the same database.
const lockClassBookings = 0x5245

// AcquireServiceLock takes a transaction-scoped advisory lock keyed by
// service id. It blocks until the lock is granted and releases
// automatically at commit or rollback, serializing conflict-check plus
// write for one service's calendar.
func AcquireServiceLock(ctx context.Context, q Querier, serviceID int64) error {
	_, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock($1, $2::int)", lockClassBookings, serviceID)
	if err != nil {
		return fmt.Errorf("failed to acquire service lock: %w", err)
	}
	return nil
}
