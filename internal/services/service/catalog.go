package service

import (
	"context"
	"errors"
	"sync"

	serviceserrors "reservio/internal/services/errors"
	"reservio/internal/services/repository"
	"reservio/pkg/config"
	apperrors "reservio/pkg/errors"
	"reservio/pkg/model"
	"reservio/pkg/validation"
)

// CatalogService manages the bookable offerings. Reads are public;
// writes are restricted to admins at the handler layer.
type CatalogService interface {
	Create(ctx context.Context, in *model.Service) (*model.Service, error)
	GetByID(ctx context.Context, id int64) (*model.Service, error)
	List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, int64, error)
	Patch(ctx context.Context, id int64, in *model.ServicePatch) (*model.Service, error)
	Delete(ctx context.Context, id int64) error
}

type catalogService struct {
	repo      repository.ServiceRepository
	validator *validation.Validator
	cfg       *config.Config
}

func NewCatalogService(repo repository.ServiceRepository, validator *validation.Validator, cfg *config.Config) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *catalogService) Create(ctx context.Context, in *model.Service) (*model.Service, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, apperrors.Validation("Invalid service input", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, in); err != nil {
		s.cfg.Log.Error("Failed to create service", "title", in.Title, "error", err)
		return nil, apperrors.Internal("Failed to create service", err)
	}

	s.cfg.Log.Info("Service created", "id", in.ID, "title", in.Title)
	return in, nil
}

func (s *catalogService) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Service ID must be positive")
	}

	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		return nil, apperrors.Internal("Failed to retrieve service", err)
	}
	return svc, nil
}

func (s *catalogService) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, int64, error) {
	if filter.PriceMin != nil && *filter.PriceMin < 0 {
		return nil, 0, apperrors.InvalidInput("price_min must not be negative")
	}
	if filter.PriceMax != nil && *filter.PriceMax < 0 {
		return nil, 0, apperrors.InvalidInput("price_max must not be negative")
	}
	if filter.PriceMin != nil && filter.PriceMax != nil && *filter.PriceMin > *filter.PriceMax {
		return nil, 0, apperrors.InvalidInput("price_min must not exceed price_max")
	}
	filter.Limit = config.NormalizePaginationLimit(filter.Limit)
	filter.Offset = config.NormalizeOffset(filter.Offset)

	var count int64
	var services []*model.Service
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count services", "error", errCount)
			errCount = apperrors.Internal("Failed to count services", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		services, errFind = s.repo.List(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list services", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve services", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return services, count, nil
}

func (s *catalogService) Patch(ctx context.Context, id int64, in *model.ServicePatch) (*model.Service, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, apperrors.Validation("Invalid service input", map[string]any{"error": err.Error()})
	}

	svc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		svc.Title = *in.Title
	}
	if in.Description != nil {
		svc.Description = *in.Description
	}
	if in.Price != nil {
		svc.Price = *in.Price
	}
	if in.DurationMinutes != nil {
		svc.DurationMinutes = *in.DurationMinutes
	}
	if in.IsActive != nil {
		svc.IsActive = *in.IsActive
	}

	if err := s.repo.Save(ctx, svc); err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to update service", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update service", err)
	}

	s.cfg.Log.Info("Service updated", "id", id)
	return svc, nil
}

// Delete removes the offering and, through the schema's cascade, its
// bookings and their reviews.
func (s *catalogService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.InvalidInput("Service ID must be positive")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to delete service", "id", id, "error", err)
		return apperrors.Internal("Failed to delete service", err)
	}

	s.cfg.Log.Info("Service deleted", "id", id)
	return nil
}
