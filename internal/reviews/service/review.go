package service

import (
	"context"
	"errors"

	bookingserrors "reservio/internal/bookings/errors"
	reviewserrors "reservio/internal/reviews/errors"
	"reservio/internal/reviews/repository"
	"reservio/pkg/config"
	apperrors "reservio/pkg/errors"
	"reservio/pkg/model"
	"reservio/pkg/validation"
)

// Requester identifies who is performing a mutation.
type Requester struct {
	UserID int64
	Admin  bool
}

// BookingReader is the slice of the booking store reviews need: a review
// may only be written by the booking's owner after the booking completed.
type BookingReader interface {
	FindByID(ctx context.Context, id int64) (*model.Booking, error)
}

type ReviewService interface {
	Create(ctx context.Context, userID int64, in *model.ReviewCreate) (*model.Review, error)
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	ListByService(ctx context.Context, serviceID int64, limit int, offset int64) ([]*model.Review, int64, error)
	Patch(ctx context.Context, id int64, requester Requester, in *model.ReviewPatch) (*model.Review, error)
	Delete(ctx context.Context, id int64, requester Requester) error
}

type reviewService struct {
	repo      repository.ReviewRepository
	bookings  BookingReader
	validator *validation.Validator
	cfg       *config.Config
}

func NewReviewService(
	repo repository.ReviewRepository,
	bookings BookingReader,
	validator *validation.Validator,
	cfg *config.Config,
) ReviewService {
	return &reviewService{
		repo:      repo,
		bookings:  bookings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *reviewService) Create(ctx context.Context, userID int64, in *model.ReviewCreate) (*model.Review, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, apperrors.Validation("Invalid review input", map[string]any{"error": err.Error()})
	}

	booking, err := s.bookings.FindByID(ctx, in.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", in.BookingID)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if booking.UserID != userID {
		return nil, apperrors.Forbidden("You can only review your own bookings")
	}
	if booking.Status != model.StatusCompleted {
		return nil, apperrors.InvalidState("Only completed bookings can be reviewed")
	}

	review := &model.Review{
		BookingID: in.BookingID,
		UserID:    userID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, reviewserrors.ErrAlreadyReviewed) {
			return nil, apperrors.Conflict("Booking already has a review")
		}
		s.cfg.Log.Error("Failed to create review", "booking_id", in.BookingID, "error", err)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.cfg.Log.Info("Review created", "id", review.ID, "booking_id", review.BookingID, "rating", review.Rating)
	return review, nil
}

func (s *reviewService) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	return s.findReview(ctx, id)
}

func (s *reviewService) ListByService(ctx context.Context, serviceID int64, limit int, offset int64) ([]*model.Review, int64, error) {
	if serviceID <= 0 {
		return nil, 0, apperrors.InvalidInput("Service ID must be positive")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	count, err := s.repo.CountByService(ctx, serviceID)
	if err != nil {
		s.cfg.Log.Error("Failed to count reviews", "service_id", serviceID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count reviews", err)
	}

	reviews, err := s.repo.ListByService(ctx, serviceID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list reviews", "service_id", serviceID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve reviews", err)
	}

	return reviews, count, nil
}

func (s *reviewService) Patch(ctx context.Context, id int64, requester Requester, in *model.ReviewPatch) (*model.Review, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, apperrors.Validation("Invalid review input", map[string]any{"error": err.Error()})
	}

	review, err := s.findReview(ctx, id)
	if err != nil {
		return nil, err
	}

	if !requester.Admin && review.UserID != requester.UserID {
		return nil, apperrors.Forbidden("Not your review")
	}

	if in.Rating != nil {
		review.Rating = *in.Rating
	}
	if in.Comment != nil {
		review.Comment = *in.Comment
	}

	if err := s.repo.Save(ctx, review); err != nil {
		s.cfg.Log.Error("Failed to update review", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update review", err)
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, id int64, requester Requester) error {
	review, err := s.findReview(ctx, id)
	if err != nil {
		return err
	}

	if !requester.Admin && review.UserID != requester.UserID {
		return apperrors.Forbidden("Not your review")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Review", id)
		}
		s.cfg.Log.Error("Failed to delete review", "id", id, "error", err)
		return apperrors.Internal("Failed to delete review", err)
	}

	s.cfg.Log.Info("Review deleted", "id", id)
	return nil
}

func (s *reviewService) findReview(ctx context.Context, id int64) (*model.Review, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Review ID must be positive")
	}

	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reviewserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Review", id)
		}
		return nil, apperrors.Internal("Failed to retrieve review", err)
	}
	return review, nil
}
