package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	reviewserrors "reservio/internal/reviews/errors"
	"reservio/pkg/db/postgres"
	"reservio/pkg/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id int64) (*model.Review, error)
	ListByService(ctx context.Context, serviceID int64, limit int, offset int64) ([]*model.Review, error)
	CountByService(ctx context.Context, serviceID int64) (int64, error)
	Save(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id int64) error
}

type pgxReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &pgxReviewRepository{pool: pool}
}

const uniqueViolation = "23505"

func (r *pgxReviewRepository) Create(ctx context.Context, review *model.Review) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	err := q.QueryRow(ctx, `
		INSERT INTO reviews (booking_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		review.BookingID, review.UserID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return reviewserrors.ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

func (r *pgxReviewRepository) FindByID(ctx context.Context, id int64) (*model.Review, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	var review model.Review
	var createdAt time.Time
	err := q.QueryRow(ctx, `
		SELECT id, booking_id, user_id, rating, comment, created_at
		FROM reviews WHERE id = $1`, id,
	).Scan(&review.ID, &review.BookingID, &review.UserID, &review.Rating, &review.Comment, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reviewserrors.ErrNotFound
		}
		return nil, err
	}
	review.CreatedAt = createdAt.UTC()
	return &review, nil
}

// ListByService resolves the service through each review's booking.
func (r *pgxReviewRepository) ListByService(ctx context.Context, serviceID int64, limit int, offset int64) ([]*model.Review, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT r.id, r.booking_id, r.user_id, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN bookings b ON b.id = r.booking_id
		WHERE b.service_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`,
		serviceID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		var review model.Review
		var createdAt time.Time
		if err := rows.Scan(&review.ID, &review.BookingID, &review.UserID, &review.Rating, &review.Comment, &createdAt); err != nil {
			return nil, err
		}
		review.CreatedAt = createdAt.UTC()
		reviews = append(reviews, &review)
	}
	return reviews, rows.Err()
}

func (r *pgxReviewRepository) CountByService(ctx context.Context, serviceID int64) (int64, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	var count int64
	err := q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM reviews r
		JOIN bookings b ON b.id = r.booking_id
		WHERE b.service_id = $1`,
		serviceID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *pgxReviewRepository) Save(ctx context.Context, review *model.Review) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE reviews SET rating = $2, comment = $3
		WHERE id = $1`,
		review.ID, review.Rating, review.Comment,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return reviewserrors.ErrNotFound
	}
	return nil
}

func (r *pgxReviewRepository) Delete(ctx context.Context, id int64) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return reviewserrors.ErrNotFound
	}
	return nil
}
