package service

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingserrors "reservio/internal/bookings/errors"
	"reservio/internal/bookings/events"
	"reservio/pkg/config"
	"reservio/pkg/db/postgres"
	apperrors "reservio/pkg/errors"
	"reservio/pkg/logger"
	"reservio/pkg/model"
	"reservio/pkg/validation"
)

// fakeBookingRepo reimplements the store contract in memory, including
// per-service locking, so lifecycle rules and the check-then-act
// discipline can be exercised without a database.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[int64]*model.Booking
	nextID   int64
	services map[int64]bool
	svcLocks sync.Map
}

type txLocksKey struct{}

type txLocks struct {
	mu   sync.Mutex
	held []*sync.Mutex
}

func newFakeBookingRepo(serviceIDs ...int64) *fakeBookingRepo {
	services := make(map[int64]bool)
	for _, id := range serviceIDs {
		services[id] = true
	}
	return &fakeBookingRepo{
		bookings: make(map[int64]*model.Booking),
		services: services,
	}
}

func (f *fakeBookingRepo) ExecuteTransaction(ctx context.Context, fn postgres.TransactionFunc) error {
	locks := &txLocks{}
	err := fn(context.WithValue(ctx, txLocksKey{}, locks))

	locks.mu.Lock()
	for _, m := range locks.held {
		m.Unlock()
	}
	locks.mu.Unlock()

	return err
}

func (f *fakeBookingRepo) LockService(ctx context.Context, serviceID int64) error {
	entry, _ := f.svcLocks.LoadOrStore(serviceID, &sync.Mutex{})
	m := entry.(*sync.Mutex)
	m.Lock()

	if locks, ok := ctx.Value(txLocksKey{}).(*txLocks); ok {
		locks.mu.Lock()
		locks.held = append(locks.held, m)
		locks.mu.Unlock()
	}
	return nil
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	booking.ID = f.nextID
	booking.CreatedAt = time.Now().UTC()
	stored := *booking
	f.bookings[booking.ID] = &stored
	return nil
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id int64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	booking, ok := f.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingRepo) List(_ context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.Booking
	for _, b := range f.bookings {
		if matchesFilter(b, filter) {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) Count(_ context.Context, filter model.BookingFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, b := range f.bookings {
		if matchesFilter(b, filter) {
			count++
		}
	}
	return count, nil
}

func matchesFilter(b *model.Booking, filter model.BookingFilter) bool {
	if filter.OwnerID != nil && b.UserID != *filter.OwnerID {
		return false
	}
	if filter.Status != nil && b.Status != *filter.Status {
		return false
	}
	if filter.From != nil && b.StartTime.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !b.StartTime.Before(*filter.To) {
		return false
	}
	return true
}

func (f *fakeBookingRepo) Save(_ context.Context, booking *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.bookings[booking.ID]; !ok {
		return bookingserrors.ErrNotFound
	}
	stored := *booking
	f.bookings[booking.ID] = &stored
	return nil
}

func (f *fakeBookingRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingRepo) HasConflict(_ context.Context, serviceID int64, start, end time.Time, excludeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bookings {
		if b.ServiceID != serviceID || b.ID == excludeID || !b.Status.Active() {
			continue
		}
		if b.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingRepo) ServiceExists(_ context.Context, serviceID int64) (bool, error) {
	return f.services[serviceID], nil
}

const testServiceID = int64(1)

func newTestService(repo *fakeBookingRepo) *bookingService {
	cfg := &config.Config{
		Log: logger.New(logger.Config{Level: logger.ERROR, Service: "test"}),
	}
	return &bookingService{
		repo:      repo,
		emitter:   events.NewEmitter(nil, cfg.Log),
		validator: validation.New(),
		cfg:       cfg,
		now:       time.Now,
	}
}

func futureInterval(startOffset, endOffset time.Duration) (time.Time, time.Time) {
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	return base.Add(startOffset), base.Add(endOffset)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

func TestCreateRejectsInvalidInterval(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	_, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID,
		StartTime: end,
		EndTime:   start,
	})
	assertCode(t, err, apperrors.CodeInvalidInterval)

	// Zero-length intervals are invalid too.
	_, err = svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID,
		StartTime: start,
		EndTime:   start,
	})
	assertCode(t, err, apperrors.CodeInvalidInterval)
}

func TestCreateRejectsOverlap(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	if _, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// [10:30, 11:30) against [10:00, 11:00)
	_, err := svc.Create(context.Background(), 11, &model.BookingCreate{
		ServiceID: testServiceID,
		StartTime: start.Add(30 * time.Minute),
		EndTime:   end.Add(30 * time.Minute),
	})
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCreateAllowsAdjacentInterval(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	if _, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	// [11:00, 12:00) touches [10:00, 11:00) only at the endpoint.
	booking, err := svc.Create(context.Background(), 11, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: end, EndTime: end.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("adjacent booking should succeed: %v", err)
	}
	if booking.Status != model.StatusPending {
		t.Errorf("expected status pending, got %s", booking.Status)
	}
}

func TestCreateStartsPending(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	booking, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.ID == 0 {
		t.Error("expected assigned id")
	}
	if booking.Status != model.StatusPending {
		t.Errorf("expected status pending, got %s", booking.Status)
	}
	if booking.UserID != 10 {
		t.Errorf("expected user id 10, got %d", booking.UserID)
	}
}

func TestCreateUnknownServiceNotFound(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	_, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: 999, StartTime: start, EndTime: end,
	})
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestCancelledBookingsAreInert(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	first, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	owner := Requester{UserID: 10}
	cancelled, err := svc.Update(context.Background(), first.ID, owner, &model.BookingUpdate{Cancel: true})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// An identical interval must now be accepted.
	_, err = svc.Create(context.Background(), 11, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("booking over a cancelled interval should succeed: %v", err)
	}
}

func TestRescheduleSelfOverlapIsNotAConflict(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	booking, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// New interval overlaps only the booking's own prior interval.
	newStart := start.Add(15 * time.Minute)
	newEnd := end.Add(15 * time.Minute)
	updated, err := svc.Update(context.Background(), booking.ID, Requester{UserID: 10}, &model.BookingUpdate{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	if err != nil {
		t.Fatalf("self-overlapping reschedule should succeed: %v", err)
	}
	if !updated.StartTime.Equal(newStart.UTC()) || !updated.EndTime.Equal(newEnd.UTC()) {
		t.Errorf("interval not updated: got [%s, %s)", updated.StartTime, updated.EndTime)
	}
	if updated.Status != model.StatusPending {
		t.Errorf("reschedule must preserve status, got %s", updated.Status)
	}
}

func TestRescheduleRejectsForeignOverlap(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	if _, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otherStart, otherEnd := futureInterval(2*time.Hour, 3*time.Hour)
	other, err := svc.Create(context.Background(), 11, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: otherStart, EndTime: otherEnd,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Move the second booking onto the first one's slot.
	newStart := start.Add(30 * time.Minute)
	newEnd := end.Add(30 * time.Minute)
	_, err = svc.Update(context.Background(), other.ID, Requester{UserID: 11}, &model.BookingUpdate{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	assertCode(t, err, apperrors.CodeConflict)
}

func TestUpdateRejectsTerminalBooking(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)
	owner := Requester{UserID: 10}

	booking, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Update(context.Background(), booking.ID, owner, &model.BookingUpdate{Cancel: true}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err = svc.Update(context.Background(), booking.ID, owner, &model.BookingUpdate{Cancel: true})
	assertCode(t, err, apperrors.CodeInvalidState)

	newStart := start.Add(2 * time.Hour)
	newEnd := end.Add(2 * time.Hour)
	_, err = svc.Update(context.Background(), booking.ID, owner, &model.BookingUpdate{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	assertCode(t, err, apperrors.CodeInvalidState)
}

func TestUpdateRejectsForeignOwner(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	booking, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Update(context.Background(), booking.ID, Requester{UserID: 99}, &model.BookingUpdate{Cancel: true})
	assertCode(t, err, apperrors.CodeForbidden)

	// Admins may cancel anyone's booking.
	if _, err := svc.Update(context.Background(), booking.ID, Requester{UserID: 99, Admin: true}, &model.BookingUpdate{Cancel: true}); err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
}

func TestSetStatusSkipsConflictCheck(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)
	admin := Requester{UserID: 1, Admin: true}

	first, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Cancel, let another booking take the slot, then resurrect the
	// first one: the override must not re-check conflicts.
	if _, err := svc.Update(context.Background(), first.ID, admin, &model.BookingUpdate{Cancel: true}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), 11, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	confirmed, err := svc.SetStatus(context.Background(), first.ID, admin, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("admin status override failed: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", confirmed.Status)
	}
}

func TestSetStatusRequiresAdmin(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	_, err := svc.SetStatus(context.Background(), 1, Requester{UserID: 10}, model.StatusConfirmed)
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	_, err := svc.SetStatus(context.Background(), 1, Requester{UserID: 1, Admin: true}, model.BookingStatus("archived"))
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestOwnerDeleteBlockedAfterStart(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)
	owner := Requester{UserID: 10}

	booking, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Freeze time exactly at start_time: owner deletion is already
	// illegal.
	svc.now = func() time.Time { return start }
	err = svc.Delete(context.Background(), booking.ID, owner)
	assertCode(t, err, apperrors.CodeInvalidState)

	// An admin deletes regardless of time.
	if err := svc.Delete(context.Background(), booking.ID, Requester{UserID: 1, Admin: true}); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
}

func TestOwnerDeleteBeforeStart(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)
	owner := Requester{UserID: 10}

	booking, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.now = func() time.Time { return start.Add(-time.Minute) }
	if err := svc.Delete(context.Background(), booking.ID, owner); err != nil {
		t.Fatalf("owner delete before start should succeed: %v", err)
	}

	_, err = svc.GetByID(context.Background(), booking.ID, owner)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestDeleteRejectsStranger(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	booking, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = svc.Delete(context.Background(), booking.ID, Requester{UserID: 99})
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestListScopesNonAdminToOwnBookings(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)
	if _, err := svc.Create(context.Background(), 10, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: start, EndTime: end,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	otherStart, otherEnd := futureInterval(2*time.Hour, 3*time.Hour)
	if _, err := svc.Create(context.Background(), 11, &model.BookingCreate{
		ServiceID: testServiceID, StartTime: otherStart, EndTime: otherEnd,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bookings, total, err := svc.List(context.Background(), Requester{UserID: 10}, model.BookingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(bookings) != 1 {
		t.Fatalf("expected 1 own booking, got %d (total %d)", len(bookings), total)
	}
	if bookings[0].UserID != 10 {
		t.Errorf("expected only own bookings, got user %d", bookings[0].UserID)
	}

	_, total, err = svc.List(context.Background(), Requester{UserID: 1, Admin: true}, model.BookingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("admin should see all bookings, got total %d", total)
	}
}

func TestConcurrentCreatesYieldSingleWinner(t *testing.T) {
	repo := newFakeBookingRepo(testServiceID)
	svc := newTestService(repo)

	start, end := futureInterval(0, time.Hour)

	const workers = 16
	results := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), userID, &model.BookingCreate{
				ServiceID: testServiceID,
				StartTime: start,
				EndTime:   end,
			})
			results <- err
		}(int64(100 + i))
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			appErr, ok := err.(*apperrors.AppError)
			if !ok || appErr.Code != apperrors.CodeConflict {
				t.Fatalf("unexpected error: %v", err)
			}
			conflicts++
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != workers-1 {
		t.Errorf("expected %d conflicts, got %d", workers-1, conflicts)
	}
}
