package booking

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("booking not found")
	ErrWorkshopInactive = errors.New("workshop is not open for booking")
	ErrDuplicateBooking = errors.New("a confirmed booking already exists for this email")
	ErrCapacityReached  = errors.New("workshop capacity reached")
)

// DiscountRejectedError carries the user-facing message produced by the
// discount rule engine.
type DiscountRejectedError struct {
	Message string
}

func (e *DiscountRejectedError) Error() string { return e.Message }
