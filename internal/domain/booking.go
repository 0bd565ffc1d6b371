package domain

import "time"

type BookingState string

const (
	BookingPending   BookingState = "pending"
	BookingConfirmed BookingState = "confirmed"
	// Deletion is physical removal, never a stored state.
)

type BookingMode string

const (
	ModeGroup      BookingMode = "group"
	ModeIndividual BookingMode = "individual"
)

// ConfirmStatus enumerates the outcomes of a confirmation attempt.
type ConfirmStatus string

const (
	ConfirmOK      ConfirmStatus = "ok"
	ConfirmAlready ConfirmStatus = "already"
	ConfirmInvalid ConfirmStatus = "invalid"
	ConfirmExpired ConfirmStatus = "expired"
	ConfirmFull    ConfirmStatus = "full"
)

type Booking struct {
	ID           int64  `json:"id"`
	WorkshopID   int64  `json:"workshop_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Organization string `json:"organization,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Message      string `json:"message,omitempty"`

	Participants     int         `json:"participants" validate:"gte=1"`
	Mode             BookingMode `json:"mode"`
	ParticipantNames []string    `json:"participant_names,omitempty"`

	State BookingState `json:"state"`
	// Empty for admin-created bookings, which skip the opt-in flow.
	Token string `json:"-"`

	// Price snapshot, frozen at creation. Never recomputed from the
	// live workshop price. Discount type/value are snapshotted too so
	// admin edits can re-derive totals under the original terms even
	// after the code expired or changed.
	PricePerPerson float64      `json:"price_per_person"`
	Currency       string       `json:"currency"`
	Subtotal       float64      `json:"subtotal"`
	Discount       float64      `json:"discount"`
	Total          float64      `json:"total"`
	DiscountCodeID *int64       `json:"discount_code_id,omitempty"`
	DiscountType   DiscountType `json:"discount_type,omitempty"`
	DiscountValue  float64      `json:"discount_value,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

func (b *Booking) IsConfirmed() bool { return b.State == BookingConfirmed }
