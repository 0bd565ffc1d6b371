package booking

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// The capacity ledger. Seat totals are always re-derived from current
// booking rows; nothing is cached across calls.

// ConfirmedSeatTotal sums participants over confirmed bookings for the
// workshop.
func (s *Service) ConfirmedSeatTotal(ctx context.Context, workshopID int64) (int, error) {
	return s.bookings.ConfirmedSeatTotal(ctx, workshopID, 0)
}

// HasRoom reports whether additional participants fit. Workshops with
// capacity 0 are unlimited and skip the check entirely.
// excludeBookingID keeps an edited confirmed booking from counting
// against itself; pass 0 to exclude nothing.
func (s *Service) HasRoom(ctx context.Context, workshopID int64, additional int, excludeBookingID int64) (bool, error) {
	w, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	if w.Unlimited() {
		return true, nil
	}

	taken, err := s.bookings.ConfirmedSeatTotal(ctx, workshopID, excludeBookingID)
	if err != nil {
		return false, err
	}
	return taken+additional <= w.Capacity, nil
}
