package booking

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"workshopdesk/internal/domain"
	"workshopdesk/internal/pkg/money"
	"workshopdesk/internal/pkg/token"
	"workshopdesk/internal/pkg/validator"
	"workshopdesk/internal/repository"
)

type Service struct {
	bookings  BookingRepository
	workshops WorkshopRepository
	discounts DiscountValidator
	notifs    Notifier

	// confirmTTL bounds the token path only; admins can always confirm.
	confirmTTL    time.Duration
	operatorEmail string
	now           func() time.Time
}

func NewService(
	bookings BookingRepository,
	workshops WorkshopRepository,
	discounts DiscountValidator,
	notifs Notifier,
	confirmTTL time.Duration,
	operatorEmail string,
) *Service {
	return &Service{
		bookings:      bookings,
		workshops:     workshops,
		discounts:     discounts,
		notifs:        notifs,
		confirmTTL:    confirmTTL,
		operatorEmail: operatorEmail,
		now:           time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateResult carries the created booking plus a delivery warning.
// NotifyFailed never blocks the booking itself.
type CreateResult struct {
	Booking      *domain.Booking `json:"booking"`
	NotifyFailed bool            `json:"notify_failed,omitempty"`
}

// ConfirmResult is the outcome of a confirmation attempt, token or
// manual.
type ConfirmResult struct {
	Status       domain.ConfirmStatus `json:"status"`
	Booking      *domain.Booking      `json:"booking,omitempty"`
	NotifyFailed bool                 `json:"notify_failed,omitempty"`
}

// DeleteResult reports whether a cancellation notification went out.
type DeleteResult struct {
	WasConfirmed bool `json:"was_confirmed"`
	NotifyFailed bool `json:"notify_failed,omitempty"`
}

// Create registers a pending booking with a frozen price snapshot and a
// single-use confirmation token. Capacity is deliberately NOT checked
// here: pending bookings do not reserve seats, the check happens at
// confirmation.
func (s *Service) Create(ctx context.Context, req CreateBookingRequest) (*CreateResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || !validator.IsEmail(req.Email) || req.Participants < 1 {
		return nil, ErrValidation
	}

	mode := domain.BookingMode(req.Mode)
	if mode == "" {
		mode = domain.ModeGroup
	}
	if mode != domain.ModeGroup && mode != domain.ModeIndividual {
		return nil, ErrValidation
	}

	workshop, err := s.workshops.GetByID(ctx, req.WorkshopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !workshop.Active {
		return nil, ErrWorkshopInactive
	}

	// Pending duplicates may resubmit; only a confirmed booking blocks.
	dup, err := s.bookings.HasConfirmedForEmail(ctx, req.WorkshopID, req.Email)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateBooking
	}

	subtotal := money.Round(workshop.PricePerPerson * float64(req.Participants))
	outcome, err := s.discounts.Validate(ctx, req.DiscountCode, workshop.ID, req.Email, req.Participants, subtotal)
	if err != nil {
		return nil, err
	}
	if !outcome.OK {
		return nil, &DiscountRejectedError{Message: outcome.Message}
	}

	confirmToken, err := token.Generate()
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		WorkshopID:       workshop.ID,
		Name:             req.Name,
		Email:            req.Email,
		Organization:     req.Organization,
		Phone:            req.Phone,
		Message:          req.Message,
		Participants:     req.Participants,
		Mode:             mode,
		ParticipantNames: req.ParticipantNames,
		State:            domain.BookingPending,
		Token:            confirmToken,
		PricePerPerson:   money.Round(workshop.PricePerPerson),
		Currency:         workshop.Currency,
		Subtotal:         outcome.Subtotal,
		Discount:         outcome.Discount,
		Total:            outcome.Total,
		CreatedAt:        s.now(),
	}
	if outcome.Code != nil {
		id := outcome.Code.ID
		b.DiscountCodeID = &id
		b.DiscountType = outcome.Code.Type
		b.DiscountValue = outcome.Code.Value
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	sent := s.notifs.Notify(ctx, domain.NotifConfirmationRequest, b.Email, map[string]any{
		"booking_id":     b.ID,
		"workshop_title": workshop.Title,
		"token":          b.Token,
		"participants":   b.Participants,
		"total":          b.Total,
		"currency":       b.Currency,
	})

	return &CreateResult{Booking: b, NotifyFailed: !sent}, nil
}

// ConfirmByToken runs the self-service opt-in. It fails closed on
// malformed or unknown tokens and is idempotent for already-confirmed
// bookings. The expiry comparison is strict: a token aged exactly
// confirmTTL is still confirmable.
func (s *Service) ConfirmByToken(ctx context.Context, rawToken string) (*ConfirmResult, error) {
	if !token.ValidFormat(rawToken) {
		return &ConfirmResult{Status: domain.ConfirmInvalid}, nil
	}

	b, err := s.bookings.GetByToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ConfirmResult{Status: domain.ConfirmInvalid}, nil
		}
		return nil, err
	}

	if b.IsConfirmed() {
		// No mutation, no duplicate email.
		return &ConfirmResult{Status: domain.ConfirmAlready, Booking: b}, nil
	}

	if s.now().Sub(b.CreatedAt) > s.confirmTTL {
		// The booking stays pending; an admin may still confirm it.
		return &ConfirmResult{Status: domain.ConfirmExpired, Booking: b}, nil
	}

	return s.confirm(ctx, b.ID)
}

// ConfirmManually is the admin path: same atomic capacity re-check,
// no token and no expiry rule.
func (s *Service) ConfirmManually(ctx context.Context, bookingID int64) (*ConfirmResult, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.confirm(ctx, bookingID)
}

func (s *Service) confirm(ctx context.Context, bookingID int64) (*ConfirmResult, error) {
	res, err := s.bookings.Confirm(ctx, bookingID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	out := &ConfirmResult{Status: res.Status, Booking: res.Booking}
	if res.Status != domain.ConfirmOK {
		return out, nil
	}

	b := res.Booking
	payload := map[string]any{
		"booking_id":   b.ID,
		"workshop_id":  b.WorkshopID,
		"participants": b.Participants,
		"total":        b.Total,
		"currency":     b.Currency,
	}
	sentBooker := s.notifs.Notify(ctx, domain.NotifBookingConfirmed, b.Email, payload)
	sentOperator := s.notifs.Notify(ctx, domain.NotifAdminNewConfirmed, s.operatorEmail, payload)
	out.NotifyFailed = !sentBooker || !sentOperator

	return out, nil
}

// Edit applies an admin edit. Totals are re-derived from the snapshotted
// price and discount terms scaled to the new participant count; the live
// workshop price and the code's current validity are not consulted. A
// confirming edit re-validates capacity against all other confirmed
// bookings atomically.
func (s *Service) Edit(ctx context.Context, req EditBookingRequest) (*domain.Booking, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || !validator.IsEmail(req.Email) || req.Participants < 1 {
		return nil, ErrValidation
	}

	b, err := s.bookings.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	b.Name = req.Name
	b.Email = req.Email
	b.Organization = req.Organization
	b.Phone = req.Phone
	b.Message = req.Message
	b.Participants = req.Participants
	if req.Mode != "" {
		b.Mode = domain.BookingMode(req.Mode)
	}
	b.ParticipantNames = req.ParticipantNames

	// A zero snapshot means the booking was taken while the workshop was
	// misconfigured. Repair from the live price for pending bookings
	// only; confirmed totals never move with the catalog.
	if b.PricePerPerson <= 0 && !b.IsConfirmed() {
		if w, werr := s.workshops.GetByID(ctx, b.WorkshopID); werr == nil {
			b.PricePerPerson = money.Round(w.PricePerPerson)
			b.Currency = w.Currency
		}
	}

	totals := money.BookingTotals(b.PricePerPerson, b.Participants, b.DiscountType, b.DiscountValue)
	b.Subtotal = totals.Subtotal
	b.Discount = totals.Discount
	b.Total = totals.Total

	if err := s.bookings.SaveEdit(ctx, b, req.Confirmed, s.now()); err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			return nil, ErrCapacityReached
		}
		return nil, err
	}

	return b, nil
}

// Delete removes the booking physically. Cancellation mail goes out only
// when the booking had been confirmed.
func (s *Service) Delete(ctx context.Context, bookingID int64) (*DeleteResult, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res := &DeleteResult{WasConfirmed: b.IsConfirmed()}
	if b.IsConfirmed() {
		sent := s.notifs.Notify(ctx, domain.NotifBookingCancelled, b.Email, map[string]any{
			"booking_id":  b.ID,
			"workshop_id": b.WorkshopID,
		})
		res.NotifyFailed = !sent
	}

	return res, nil
}

// CreateConfirmed is the admin path that skips the opt-in flow: the
// booking is created pending without a token and confirmed atomically.
// Inactive workshops are allowed here, duplicate confirmed emails are
// not. If the workshop is full the row is removed again.
func (s *Service) CreateConfirmed(ctx context.Context, req CreateBookingRequest) (*ConfirmResult, error) {
	created, err := s.createWithoutToken(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := s.confirm(ctx, created.ID)
	if err != nil {
		return nil, err
	}
	if res.Status == domain.ConfirmFull {
		if derr := s.bookings.Delete(ctx, created.ID); derr != nil {
			log.Printf("booking: failed to remove unconfirmable booking %d: %v", created.ID, derr)
		}
		return nil, ErrCapacityReached
	}
	return res, nil
}

func (s *Service) createWithoutToken(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || !validator.IsEmail(req.Email) || req.Participants < 1 {
		return nil, ErrValidation
	}

	workshop, err := s.workshops.GetByID(ctx, req.WorkshopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Admins may book inactive workshops; the one-confirmed-booking-per-
	// email rule still holds.
	dup, err := s.bookings.HasConfirmedForEmail(ctx, req.WorkshopID, req.Email)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateBooking
	}

	subtotal := money.Round(workshop.PricePerPerson * float64(req.Participants))
	outcome, err := s.discounts.Validate(ctx, req.DiscountCode, workshop.ID, req.Email, req.Participants, subtotal)
	if err != nil {
		return nil, err
	}
	if !outcome.OK {
		return nil, &DiscountRejectedError{Message: outcome.Message}
	}

	mode := domain.BookingMode(req.Mode)
	if mode == "" {
		mode = domain.ModeGroup
	}

	b := &domain.Booking{
		WorkshopID:       workshop.ID,
		Name:             req.Name,
		Email:            req.Email,
		Organization:     req.Organization,
		Phone:            req.Phone,
		Message:          req.Message,
		Participants:     req.Participants,
		Mode:             mode,
		ParticipantNames: req.ParticipantNames,
		State:            domain.BookingPending,
		PricePerPerson:   money.Round(workshop.PricePerPerson),
		Currency:         workshop.Currency,
		Subtotal:         outcome.Subtotal,
		Discount:         outcome.Discount,
		Total:            outcome.Total,
		CreatedAt:        s.now(),
	}
	if outcome.Code != nil {
		id := outcome.Code.ID
		b.DiscountCodeID = &id
		b.DiscountType = outcome.Code.Type
		b.DiscountValue = outcome.Code.Value
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) ListByWorkshop(ctx context.Context, workshopID int64) ([]domain.Booking, error) {
	return s.bookings.ListByWorkshop(ctx, workshopID)
}
