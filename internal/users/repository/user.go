package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	userserrors "reservio/internal/users/errors"
	"reservio/pkg/db/postgres"
	"reservio/pkg/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgxUserRepository{pool: pool}
}

const uniqueViolation = "23505"

func (r *pgxUserRepository) Create(ctx context.Context, user *model.User) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	err := q.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		user.Email, user.PasswordHash, user.Name, user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return userserrors.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *pgxUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, `
		SELECT id, email, password_hash, name, role, created_at
		FROM users WHERE id = $1`, id)
}

func (r *pgxUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `
		SELECT id, email, password_hash, name, role, created_at
		FROM users WHERE email = $1`, email)
}

func (r *pgxUserRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	var user model.User
	var createdAt time.Time
	err := q.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, userserrors.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = createdAt.UTC()
	return &user, nil
}

func (r *pgxUserRepository) Save(ctx context.Context, user *model.User) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE users SET email = $2, password_hash = $3, name = $4, role = $5
		WHERE id = $1`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return userserrors.ErrEmailTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}
