package booking

import (
	"context"
	"time"

	"workshopdesk/internal/domain"
	"workshopdesk/internal/modules/discount"
	"workshopdesk/internal/repository"
)

// BookingRepository defines the storage operations of the state machine.
// Confirm and SaveEdit are atomic: they lock the workshop row, re-derive
// the confirmed seat total and write conditionally in one transaction.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByToken(ctx context.Context, token string) (*domain.Booking, error)
	ListByWorkshop(ctx context.Context, workshopID int64) ([]domain.Booking, error)
	HasConfirmedForEmail(ctx context.Context, workshopID int64, email string) (bool, error)
	ConfirmedSeatTotal(ctx context.Context, workshopID int64, excludeBookingID int64) (int, error)
	Confirm(ctx context.Context, bookingID int64, now time.Time) (*repository.ConfirmResult, error)
	SaveEdit(ctx context.Context, b *domain.Booking, confirm bool, now time.Time) error
	Delete(ctx context.Context, id int64) error
}

type WorkshopRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Workshop, error)
}

// DiscountValidator prices a candidate booking; see the discount module.
type DiscountValidator interface {
	Validate(ctx context.Context, code string, workshopID int64, email string, participants int, subtotal float64) (*discount.Outcome, error)
}

// Notifier is the external messaging collaborator. A false return means
// delivery failed; that never blocks a state transition, it only
// surfaces as a warning on the result.
type Notifier interface {
	Notify(ctx context.Context, kind domain.NotificationKind, recipient string, payload map[string]any) bool
}
