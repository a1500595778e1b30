package model

import "time"

// Service is a bookable offering; bookings reference it by id.
type Service struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title" validate:"required,min=2,max=200"`
	Description     string    `json:"description" validate:"max=2000"`
	Price           float64   `json:"price" validate:"gte=0"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

type ServicePatch struct {
	Title           *string  `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description     *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price           *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	DurationMinutes *int     `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
	IsActive        *bool    `json:"is_active,omitempty"`
}

type ServiceFilter struct {
	Query    string
	PriceMin *float64
	PriceMax *float64
	Active   *bool
	Limit    int
	Offset   int64
}
