package discount

import "time"

type ValidateRequest struct {
	Code         string  `json:"code"`
	WorkshopID   int64   `json:"workshop_id" binding:"required"`
	Email        string  `json:"email"`
	Participants int     `json:"participants" binding:"required,gte=1"`
	Subtotal     float64 `json:"subtotal" binding:"gte=0"`
}

type CodeRequest struct {
	Code            string     `json:"code" binding:"required"`
	Type            string     `json:"type" binding:"required,oneof=percent fixed"`
	Value           float64    `json:"value" binding:"required,gt=0"`
	Active          bool       `json:"active"`
	StartsAt        *time.Time `json:"starts_at"`
	ExpiresAt       *time.Time `json:"expires_at"`
	MaxTotalUses    int        `json:"max_total_uses" binding:"gte=0"`
	MaxUsesPerEmail int        `json:"max_uses_per_email" binding:"gte=0"`
	MinParticipants int        `json:"min_participants" binding:"gte=0"`

	AllowedWorkshopIDs []int64  `json:"allowed_workshop_ids"`
	AllowedEmails      []string `json:"allowed_emails"`
}
