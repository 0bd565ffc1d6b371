package domain

import "time"

type Workshop struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title" validate:"required"`
	Description    string    `json:"description,omitempty"`
	Capacity       int       `json:"capacity" validate:"gte=0"` // 0 = unlimited
	PricePerPerson float64   `json:"price_per_person" validate:"gte=0"`
	Currency       string    `json:"currency"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Unlimited reports whether the workshop has no seat limit.
func (w *Workshop) Unlimited() bool { return w.Capacity == 0 }
