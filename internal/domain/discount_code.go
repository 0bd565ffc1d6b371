package domain

import (
	"regexp"
	"strings"
	"time"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// CodeStatus is derived from the active flag and the validity window,
// never stored. The same derivation feeds validation and the admin list.
type CodeStatus string

const (
	CodeInactive  CodeStatus = "inactive"
	CodeScheduled CodeStatus = "scheduled"
	CodeExpired   CodeStatus = "expired"
	CodeActive    CodeStatus = "active"
)

type DiscountCode struct {
	ID     int64        `json:"id"`
	Code   string       `json:"code" validate:"required"`
	Type   DiscountType `json:"type" validate:"required,oneof=percent fixed"`
	Value  float64      `json:"value" validate:"gt=0"`
	Active bool         `json:"active"`

	StartsAt  *time.Time `json:"starts_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	MaxTotalUses    int `json:"max_total_uses" validate:"gte=0"`    // 0 = unlimited
	MaxUsesPerEmail int `json:"max_uses_per_email" validate:"gte=0"` // 0 = unlimited
	MinParticipants int `json:"min_participants" validate:"gte=0"`  // 0 = no minimum

	// Empty slices mean "no restriction".
	AllowedWorkshopIDs []int64  `json:"allowed_workshop_ids,omitempty"`
	AllowedEmails      []string `json:"allowed_emails,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,40}$`)

// NormalizeCode trims, strips internal whitespace and uppercases a
// user-entered code.
func NormalizeCode(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Join(strings.Fields(s), "")
	return strings.ToUpper(s)
}

func ValidCodeFormat(code string) bool { return codePattern.MatchString(code) }

// Status derives the current lifecycle status. Precedence: inactive,
// scheduled, expired, active. Window boundaries are inclusive of
// validity: now == starts_at and now == expires_at are both active.
func (c *DiscountCode) Status(now time.Time) CodeStatus {
	if !c.Active {
		return CodeInactive
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return CodeScheduled
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return CodeExpired
	}
	return CodeActive
}

func (c *DiscountCode) AllowsWorkshop(workshopID int64) bool {
	if len(c.AllowedWorkshopIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedWorkshopIDs {
		if id == workshopID {
			return true
		}
	}
	return false
}

func (c *DiscountCode) AllowsEmail(email string) bool {
	if len(c.AllowedEmails) == 0 {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range c.AllowedEmails {
		if strings.ToLower(strings.TrimSpace(allowed)) == email {
			return true
		}
	}
	return false
}
