package catalog

import "workshopdesk/internal/domain"

type WorkshopRequest struct {
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description"`
	Capacity       int     `json:"capacity" binding:"gte=0"`
	PricePerPerson float64 `json:"price_per_person" binding:"gte=0"`
	Currency       string  `json:"currency" binding:"required,len=3"`
	Active         *bool   `json:"active"`
}

// WorkshopView is a workshop with its availability derived at read
// time. RemainingSeats is nil for unlimited workshops.
type WorkshopView struct {
	domain.Workshop
	RemainingSeats *int `json:"remaining_seats,omitempty"`
	ConfirmedSeats int  `json:"confirmed_seats"`
}
