package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Active bookings participate in overlap checks; terminal ones are inert.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Booking holds one reserved interval on a service's calendar.
// UserID and ServiceID never change after creation; only the interval and
// status are mutable, and only through the booking service.
type Booking struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id" validate:"required,gt=0"`
	ServiceID int64         `json:"service_id" validate:"required,gt=0"`
	StartTime time.Time     `json:"start_time" validate:"required"`
	EndTime   time.Time     `json:"end_time" validate:"required,gtfield=StartTime"`
	Status    BookingStatus `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	CreatedAt time.Time     `json:"created_at"`
}

// Overlaps reports half-open interval overlap with [start, end):
// intervals touching only at an endpoint do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

type BookingCreate struct {
	ServiceID int64     `json:"service_id" validate:"required,gt=0"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type BookingUpdate struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Cancel    bool       `json:"cancel,omitempty"`
}

// BookingFilter composes conjunctively; nil fields are unconstrained.
type BookingFilter struct {
	OwnerID *int64
	Status  *BookingStatus
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int64
}
