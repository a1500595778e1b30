package model

import "time"

// Review references exactly one booking; at most one review per booking,
// enforced by a unique constraint.
type Review struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id" validate:"required,gt=0"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment,omitempty" validate:"max=2000"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewCreate struct {
	BookingID int64  `json:"booking_id" validate:"required,gt=0"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty" validate:"max=2000"`
}

type ReviewPatch struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}
