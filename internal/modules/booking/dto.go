package booking

type CreateBookingRequest struct {
	WorkshopID   int64  `json:"workshop_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Organization string `json:"organization"`
	Phone        string `json:"phone"`
	Message      string `json:"message"`

	Participants     int      `json:"participants" binding:"required,gte=1"`
	Mode             string   `json:"mode" binding:"omitempty,oneof=group individual"`
	ParticipantNames []string `json:"participant_names"`

	DiscountCode string `json:"discount_code"`
}

type EditBookingRequest struct {
	ID           int64  `json:"-"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Organization string `json:"organization"`
	Phone        string `json:"phone"`
	Message      string `json:"message"`

	Participants     int      `json:"participants" binding:"required,gte=1"`
	Mode             string   `json:"mode" binding:"omitempty,oneof=group individual"`
	ParticipantNames []string `json:"participant_names"`

	// Confirmed=true on a pending booking is a confirming edit and
	// triggers the atomic capacity re-check.
	Confirmed bool `json:"confirmed"`
}
