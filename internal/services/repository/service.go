package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	serviceserrors "reservio/internal/services/errors"
	"reservio/pkg/db/postgres"
	"reservio/pkg/model"
)

type ServiceRepository interface {
	Create(ctx context.Context, svc *model.Service) error
	FindByID(ctx context.Context, id int64) (*model.Service, error)
	List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error)
	Count(ctx context.Context, filter model.ServiceFilter) (int64, error)
	Save(ctx context.Context, svc *model.Service) error
	Delete(ctx context.Context, id int64) error
}

type pgxServiceRepository struct {
	pool *pgxpool.Pool
}

func NewServiceRepository(pool *pgxpool.Pool) ServiceRepository {
	return &pgxServiceRepository{pool: pool}
}

func (r *pgxServiceRepository) Create(ctx context.Context, svc *model.Service) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	return q.QueryRow(ctx, `
		INSERT INTO services (title, description, price, duration_minutes, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		svc.Title, svc.Description, svc.Price, svc.DurationMinutes, svc.IsActive,
	).Scan(&svc.ID, &svc.CreatedAt)
}

func (r *pgxServiceRepository) FindByID(ctx context.Context, id int64) (*model.Service, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	var svc model.Service
	var createdAt time.Time
	err := q.QueryRow(ctx, `
		SELECT id, title, description, price, duration_minutes, is_active, created_at
		FROM services WHERE id = $1`, id,
	).Scan(&svc.ID, &svc.Title, &svc.Description, &svc.Price, &svc.DurationMinutes, &svc.IsActive, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serviceserrors.ErrNotFound
		}
		return nil, err
	}
	svc.CreatedAt = createdAt.UTC()
	return &svc, nil
}

func (r *pgxServiceRepository) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	query, args := buildListQuery(
		"SELECT id, title, description, price, duration_minutes, is_active, created_at FROM services",
		filter,
	)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", filter.Limit, filter.Offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []*model.Service
	for rows.Next() {
		var svc model.Service
		var createdAt time.Time
		if err := rows.Scan(&svc.ID, &svc.Title, &svc.Description, &svc.Price, &svc.DurationMinutes, &svc.IsActive, &createdAt); err != nil {
			return nil, err
		}
		svc.CreatedAt = createdAt.UTC()
		services = append(services, &svc)
	}
	return services, rows.Err()
}

func (r *pgxServiceRepository) Count(ctx context.Context, filter model.ServiceFilter) (int64, error) {
	q := postgres.QuerierFrom(ctx, r.pool)

	query, args := buildListQuery("SELECT COUNT(*) FROM services", filter)

	var count int64
	if err := q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func buildListQuery(base string, filter model.ServiceFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}

	if len(clauses) > 0 {
		base += " WHERE " + strings.Join(clauses, " AND ")
	}
	return base, args
}

func (r *pgxServiceRepository) Save(ctx context.Context, svc *model.Service) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE services SET title = $2, description = $3, price = $4, duration_minutes = $5, is_active = $6
		WHERE id = $1`,
		svc.ID, svc.Title, svc.Description, svc.Price, svc.DurationMinutes, svc.IsActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return serviceserrors.ErrNotFound
	}
	return nil
}

func (r *pgxServiceRepository) Delete(ctx context.Context, id int64) error {
	q := postgres.QuerierFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return serviceserrors.ErrNotFound
	}
	return nil
}
