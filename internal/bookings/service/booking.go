package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "reservio/internal/bookings/errors"
	"reservio/internal/bookings/events"
	"reservio/internal/bookings/repository"
	"reservio/pkg/config"
	apperrors "reservio/pkg/errors"
	"reservio/pkg/model"
	"reservio/pkg/validation"
)

// Requester identifies who is performing a mutation. Authorization is
// evaluated at the handler layer; the service re-asserts ownership and
// state legality anyway, so a handler bug cannot corrupt the state
// machine.
type Requester struct {
	UserID int64
	Admin  bool
}

// BookingService is the only path through which bookings are created,
// rescheduled, cancelled, confirmed, completed or deleted.
type BookingService interface {
	Create(ctx context.Context, userID int64, in *model.BookingCreate) (*model.Booking, error)
	GetByID(ctx context.Context, id int64, requester Requester) (*model.Booking, error)
	List(ctx context.Context, requester Requester, filter model.BookingFilter) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id int64, requester Requester, updates *model.BookingUpdate) (*model.Booking, error)
	SetStatus(ctx context.Context, id int64, requester Requester, status model.BookingStatus) (*model.Booking, error)
	Delete(ctx context.Context, id int64, requester Requester) error
}

type bookingService struct {
	repo      repository.BookingRepository
	emitter   *events.Emitter
	validator *validation.Validator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	emitter *events.Emitter,
	validator *validation.Validator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		emitter:   emitter,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create persists a new pending booking. The conflict check and the
// insert run in one transaction under an advisory lock on the service's
// calendar, so two concurrent requests for overlapping intervals cannot
// both pass the check.
func (s *bookingService) Create(ctx context.Context, userID int64, in *model.BookingCreate) (*model.Booking, error) {
	if err := s.validator.Struct(in); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, apperrors.InvalidInterval("start_time must be before end_time")
	}

	booking := &model.Booking{
		UserID:    userID,
		ServiceID: in.ServiceID,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		Status:    model.StatusPending,
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockService(txCtx, booking.ServiceID); err != nil {
			return apperrors.Internal("Failed to lock service calendar", err)
		}

		exists, err := s.repo.ServiceExists(txCtx, booking.ServiceID)
		if err != nil {
			return apperrors.Internal("Failed to check service existence", err)
		}
		if !exists {
			return apperrors.NotFoundWithID("Service", booking.ServiceID)
		}

		if err := s.verifyNoConflict(txCtx, booking.ServiceID, booking.StartTime, booking.EndTime, 0); err != nil {
			return err
		}

		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "user_id", userID, "service_id", in.ServiceID, "error", err)
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeBookingCreated, booking)
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"user_id", booking.UserID,
		"service_id", booking.ServiceID,
		"start_time", booking.StartTime,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id int64, requester Requester) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if !requester.Admin && booking.UserID != requester.UserID {
		return nil, apperrors.Forbidden("Not your booking")
	}

	return booking, nil
}

// List returns bookings ordered by start_time descending. Non-admin
// requesters only ever see their own bookings, regardless of the filter.
func (s *bookingService) List(ctx context.Context, requester Requester, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	if !requester.Admin {
		filter.OwnerID = &requester.UserID
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status filter: %s", *filter.Status))
	}
	filter.Limit = config.NormalizePaginationLimit(filter.Limit)
	filter.Offset = config.NormalizeOffset(filter.Offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.List(ctx, filter)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Update reschedules or cancels a booking. Cancel wins when both are
// requested. Rescheduling re-checks conflicts under the service lock,
// excluding the booking's own row: a booking never conflicts with
// itself.
func (s *bookingService) Update(ctx context.Context, id int64, requester Requester, updates *model.BookingUpdate) (*model.Booking, error) {
	if !updates.Cancel {
		if updates.StartTime == nil || updates.EndTime == nil {
			return nil, apperrors.InvalidInput("start_time and end_time must be provided together")
		}
	}

	var updated *model.Booking
	var eventType string

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.findBooking(txCtx, id)
		if err != nil {
			return err
		}

		if !requester.Admin && booking.UserID != requester.UserID {
			return apperrors.Forbidden("Not your booking")
		}
		if booking.Status.Terminal() {
			return apperrors.InvalidState(fmt.Sprintf("Cannot modify a %s booking", booking.Status))
		}

		if updates.Cancel {
			booking.Status = model.StatusCancelled
			eventType = events.TypeBookingCancelled
		} else {
			start := updates.StartTime.UTC()
			end := updates.EndTime.UTC()
			if !end.After(start) {
				return apperrors.InvalidInterval("start_time must be before end_time")
			}

			if err := s.repo.LockService(txCtx, booking.ServiceID); err != nil {
				return apperrors.Internal("Failed to lock service calendar", err)
			}
			if err := s.verifyNoConflict(txCtx, booking.ServiceID, start, end, booking.ID); err != nil {
				return err
			}

			booking.StartTime = start
			booking.EndTime = end
			eventType = events.TypeBookingRescheduled
		}

		if err := s.repo.Save(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		updated = booking
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.emitter.Emit(ctx, eventType, updated)
	s.cfg.Log.Info("Booking updated successfully", "id", id, "status", updated.Status)
	return updated, nil
}

// SetStatus is the administrative override: it sets the status directly
// with no conflict re-check, so an admin may knowingly confirm
// overlapping bookings.
func (s *bookingService) SetStatus(ctx context.Context, id int64, requester Requester, status model.BookingStatus) (*model.Booking, error) {
	if !requester.Admin {
		return nil, apperrors.Forbidden("Admin role required")
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status: %s", status))
	}

	var updated *model.Booking

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.findBooking(txCtx, id)
		if err != nil {
			return err
		}

		booking.Status = status
		if err := s.repo.Save(txCtx, booking); err != nil {
			return apperrors.Internal("Failed to update booking status", err)
		}
		updated = booking
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to set booking status", "id", id, "status", status, "error", err)
		return nil, err
	}

	s.emitter.Emit(ctx, events.TypeBookingStatusChanged, updated)
	s.cfg.Log.Info("Booking status set", "id", id, "status", status)
	return updated, nil
}

// Delete removes a booking. Owners may delete only before the booking's
// start time; admins may delete unconditionally.
func (s *bookingService) Delete(ctx context.Context, id int64, requester Requester) error {
	var deleted *model.Booking

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.findBooking(txCtx, id)
		if err != nil {
			return err
		}

		isOwner := booking.UserID == requester.UserID
		if !isOwner && !requester.Admin {
			return apperrors.Forbidden("Not authorized to delete this booking")
		}
		if !requester.Admin && !s.now().Before(booking.StartTime) {
			return apperrors.InvalidState("Cannot delete booking after start time")
		}

		if err := s.repo.Delete(txCtx, booking.ID); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to delete booking", err)
		}
		deleted = booking
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete booking", "id", id, "error", err)
		return err
	}

	s.emitter.Emit(ctx, events.TypeBookingDeleted, deleted)
	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *bookingService) findBooking(ctx context.Context, id int64) (*model.Booking, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Booking ID must be positive")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) verifyNoConflict(ctx context.Context, serviceID int64, start, end time.Time, excludeID int64) error {
	conflict, err := s.repo.HasConflict(ctx, serviceID, start, end, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	if conflict {
		return apperrors.Conflict(fmt.Sprintf(
			"Booking time overlaps an existing booking (%s - %s)",
			start.Format(time.RFC3339),
			end.Format(time.RFC3339),
		))
	}
	return nil
}
