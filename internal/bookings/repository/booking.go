package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	bookingserrors "reservio/internal/bookings/errors"
	"reservio/pkg/db/postgres"
	"reservio/pkg/model"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id int64) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	Save(ctx context.Context, booking *model.Booking) error
	Delete(ctx context.Context, id int64) error
	HasConflict(ctx context.Context, serviceID int64, start, end time.Time, excludeID int64) (bool, error)
	ServiceExists(ctx context.Context, serviceID int64) (bool, error)
	LockService(ctx context.Context, serviceID int64) error
	ExecuteTransaction(ctx context.Context, fn postgres.TransactionFunc) error
}

type pgxBookingRepository struct {
	pool      *pgxpool.Pool
	txManager postgres.TransactionManager
}

func NewBookingRepository(pool *pgxpool.Pool, txManager postgres.TransactionManager) BookingRepository {
	return &pgxBookingRepository{
		pool:      pool,
		txManager: txManager,
	}
}

func (r *pgxBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	query := `
		INSERT INTO bookings (user_id, service_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := q.QueryRow(ctx, query,
		booking.UserID,
		booking.ServiceID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *pgxBookingRepository) FindByID(ctx context.Context, id int64) (*model.Booking, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	query := `
		SELECT id, user_id, service_id, start_time, end_time, status, created_at
		FROM bookings
		WHERE id = $1`

	var booking model.Booking
	err := q.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ServiceID,
		&booking.StartTime,
		&booking.EndTime,
		&booking.Status,
		&booking.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *pgxBookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	query, args := buildListQuery(
		"SELECT id, user_id, service_id, start_time, end_time, status, created_at FROM bookings",
		filter,
	)
	query += " ORDER BY start_time DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		var booking model.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.ServiceID,
			&booking.StartTime,
			&booking.EndTime,
			&booking.Status,
			&booking.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}

	return bookings, nil
}

func (r *pgxBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	query, args := buildListQuery("SELECT COUNT(*) FROM bookings", filter)

	var count int64
	if err := q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// buildListQuery appends the filter's conjunctive WHERE clauses; omitted
// fields are unconstrained.
func buildListQuery(base string, filter model.BookingFilter) (string, []any) {
	query := base
	args := []any{}
	clause := " WHERE "

	addClause := func(condition string, value any) {
		args = append(args, value)
		query += clause + condition + "$" + strconv.Itoa(len(args))
		clause = " AND "
	}

	if filter.OwnerID != nil {
		addClause("user_id = ", *filter.OwnerID)
	}
	if filter.Status != nil {
		addClause("status = ", *filter.Status)
	}
	if filter.From != nil {
		addClause("start_time >= ", *filter.From)
	}
	if filter.To != nil {
		addClause("start_time < ", *filter.To)
	}

	return query, args
}

func (r *pgxBookingRepository) Save(ctx context.Context, booking *model.Booking) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	// user_id and service_id are immutable after creation and deliberately
	// absent from the update list.
	query := `
		UPDATE bookings
		SET start_time = $2, end_time = $3, status = $4
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		booking.ID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *pgxBookingRepository) Delete(ctx context.Context, id int64) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, "DELETE FROM bookings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

// HasConflict reports whether any active booking for the service overlaps
// [start, end). Half-open semantics: intervals that only touch at an
// endpoint do not conflict. excludeID skips the booking's own row on
// reschedule; pass 0 on create.
func (r *pgxBookingRepository) HasConflict(ctx context.Context, serviceID int64, start, end time.Time, excludeID int64) (bool, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE service_id = $1
			  AND start_time < $3
			  AND end_time > $2
			  AND status IN ('pending', 'confirmed')
			  AND id <> $4
		)`

	var conflict bool
	if err := q.QueryRow(ctx, query, serviceID, start, end, excludeID).Scan(&conflict); err != nil {
		return false, fmt.Errorf("failed to check booking conflict: %w", err)
	}

	return conflict, nil
}

func (r *pgxBookingRepository) ServiceExists(ctx context.Context, serviceID int64) (bool, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	var exists bool
	err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM services WHERE id = $1)", serviceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check service existence: %w", err)
	}

	return exists, nil
}

// LockService serializes calendar mutations for one service. Must be
// called inside a transaction; the lock is released at commit/rollback.
func (r *pgxBookingRepository) LockService(ctx context.Context, serviceID int64) error {
	return postgres.AcquireServiceLock(ctx, postgres.QuerierFrom(ctx, r.pool), serviceID)
}

func (r *pgxBookingRepository) ExecuteTransaction(ctx context.Context, fn postgres.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
