package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"workshopdesk/internal/domain"
	"workshopdesk/internal/pkg/money"
	"workshopdesk/internal/pkg/validator"
	"workshopdesk/internal/repository"
)

// Outcome is the priced result of validating a code against a booking
// context. OK with a nil Code means "no code entered", which is not an
// error.
type Outcome struct {
	OK       bool                 `json:"ok"`
	Message  string               `json:"message,omitempty"`
	Code     *domain.DiscountCode `json:"code,omitempty"`
	Subtotal float64              `json:"subtotal"`
	Discount float64              `json:"discount"`
	Total    float64              `json:"total"`
}

type Service struct {
	codes CodeRepository
	now   func() time.Time
}

func NewService(codes CodeRepository) *Service {
	return &Service{codes: codes, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func failed(subtotal float64, message string) *Outcome {
	return &Outcome{
		OK:       false,
		Message:  message,
		Subtotal: money.Round(subtotal),
		Discount: 0,
		Total:    money.Round(subtotal),
	}
}

// Validate evaluates the rule chain in order; the first failing rule
// wins and its message is what the booking form shows. The order is
// part of the contract: status problems must be reported before
// restriction problems.
func (s *Service) Validate(ctx context.Context, rawCode string, workshopID int64, email string, participants int, subtotal float64) (*Outcome, error) {
	code := domain.NormalizeCode(rawCode)

	if code == "" {
		rounded := money.Round(subtotal)
		return &Outcome{OK: true, Subtotal: rounded, Discount: 0, Total: rounded}, nil
	}

	if money.Round(subtotal) <= 0 {
		return failed(subtotal, "no discount applicable"), nil
	}

	record, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failed(subtotal, "code not found"), nil
		}
		return nil, err
	}

	switch record.Status(s.now()) {
	case domain.CodeInactive:
		return failed(subtotal, "this code is not active"), nil
	case domain.CodeScheduled:
		return failed(subtotal, "this code is not valid yet"), nil
	case domain.CodeExpired:
		return failed(subtotal, "this code has expired"), nil
	}

	if record.MinParticipants > 0 && participants < record.MinParticipants {
		return failed(subtotal, fmt.Sprintf("this code requires at least %d participants", record.MinParticipants)), nil
	}

	if !record.AllowsWorkshop(workshopID) {
		return failed(subtotal, "this code is not valid for the selected workshop"), nil
	}

	if len(record.AllowedEmails) > 0 {
		if !validator.IsEmail(email) {
			return failed(subtotal, "a valid email address is required for this code"), nil
		}
		if !record.AllowsEmail(email) {
			return failed(subtotal, "this code is not valid for your email address"), nil
		}
	}

	if record.MaxTotalUses > 0 {
		used, err := s.codes.CountUsage(ctx, record.ID)
		if err != nil {
			return nil, err
		}
		if used >= record.MaxTotalUses {
			return failed(subtotal, "this code has been fully redeemed"), nil
		}
	}

	if record.MaxUsesPerEmail > 0 {
		used, err := s.codes.CountUsageByEmail(ctx, record.ID, email)
		if err != nil {
			return nil, err
		}
		if used >= record.MaxUsesPerEmail {
			return failed(subtotal, "this code has already been used with your email address"), nil
		}
	}

	totals := money.ApplyDiscount(subtotal, record.Type, record.Value)
	if totals.Discount <= 0 {
		return failed(subtotal, "code misconfigured"), nil
	}

	return &Outcome{
		OK:       true,
		Code:     record,
		Subtotal: totals.Subtotal,
		Discount: totals.Discount,
		Total:    totals.Total,
	}, nil
}

// CodeInfo pairs a code with its derived status and live usage count
// for the admin list.
type CodeInfo struct {
	domain.DiscountCode
	Status    domain.CodeStatus `json:"status"`
	UsedCount int               `json:"used_count"`
}

func (s *Service) ListCodes(ctx context.Context) ([]CodeInfo, error) {
	codes, err := s.codes.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]CodeInfo, 0, len(codes))
	for _, c := range codes {
		used, err := s.codes.CountUsage(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, CodeInfo{DiscountCode: c, Status: c.Status(now), UsedCount: used})
	}
	return out, nil
}

func (s *Service) CreateCode(ctx context.Context, c *domain.DiscountCode) error {
	if err := s.checkCode(c); err != nil {
		return err
	}
	if err := s.codes.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrCodeExists
		}
		return err
	}
	return nil
}

func (s *Service) UpdateCode(ctx context.Context, c *domain.DiscountCode) error {
	if err := s.checkCode(c); err != nil {
		return err
	}
	if _, err := s.codes.GetByID(ctx, c.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.codes.Update(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrCodeExists
		}
		return err
	}
	return nil
}

func (s *Service) DeleteCode(ctx context.Context, id int64) error {
	if err := s.codes.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) checkCode(c *domain.DiscountCode) error {
	c.Code = domain.NormalizeCode(c.Code)
	if !domain.ValidCodeFormat(c.Code) {
		return ErrValidation
	}
	if c.Value <= 0 {
		return ErrValidation
	}
	if c.Type == domain.DiscountPercent && c.Value > 100 {
		return ErrValidation
	}
	if c.Type != domain.DiscountPercent && c.Type != domain.DiscountFixed {
		return ErrValidation
	}
	if c.StartsAt != nil && c.ExpiresAt != nil && c.ExpiresAt.Before(*c.StartsAt) {
		return ErrValidation
	}
	if c.MaxTotalUses < 0 || c.MaxUsesPerEmail < 0 || c.MinParticipants < 0 {
		return ErrValidation
	}
	return nil
}
