package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"reservio/pkg/logger"
	"reservio/pkg/model"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingRescheduled   = "booking.rescheduled"
	TypeBookingCancelled     = "booking.cancelled"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeBookingDeleted       = "booking.deleted"
)

// BookingEvent is the wire payload published after a committed mutation.
type BookingEvent struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	BookingID  int64               `json:"booking_id"`
	UserID     int64               `json:"user_id"`
	ServiceID  int64               `json:"service_id"`
	Status     model.BookingStatus `json:"status"`
	StartTime  time.Time           `json:"start_time"`
	EndTime    time.Time           `json:"end_time"`
	OccurredAt time.Time           `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Emitter publishes lifecycle events best effort: a broker outage is
// logged and never fails the booking mutation that triggered it.
type Emitter struct {
	publisher Publisher
	log       *logger.Logger
}

// NewEmitter accepts a nil publisher, which disables emission; callers
// never need to branch on whether eventing is configured.
func NewEmitter(publisher Publisher, log *logger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		log:       log,
	}
}

func (e *Emitter) Emit(ctx context.Context, eventType string, booking *model.Booking) {
	if e.publisher == nil {
		return
	}

	event := BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		ServiceID:  booking.ServiceID,
		Status:     booking.Status,
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		e.log.Error("Failed to marshal booking event", "type", eventType, "booking_id", booking.ID, "error", err)
		return
	}

	key := strconv.FormatInt(booking.ID, 10)
	if err := e.publisher.Publish(ctx, key, payload); err != nil {
		e.log.Warn("Failed to publish booking event",
			"type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
