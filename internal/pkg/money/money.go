package money

import (
	"math"

	"workshopdesk/internal/domain"
)

// Totals is the priced outcome of a booking: total = subtotal - discount,
// discount never exceeds subtotal, all values rounded to 2 decimals.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Round clamps negative amounts to 0 and rounds half-up to 2 decimals.
// All monetary values pass through here exactly once; nothing downstream
// rounds again.
func Round(amount float64) float64 {
	if amount < 0 {
		return 0
	}
	return math.Round(amount*100) / 100
}

// ApplyDiscount computes the discount for a rounded subtotal. Percent
// values are clamped to [0,100], the resulting discount is clamped to
// the subtotal so a total can never go negative.
func ApplyDiscount(subtotal float64, discountType domain.DiscountType, value float64) Totals {
	subtotal = Round(subtotal)

	var discount float64
	if value > 0 {
		switch discountType {
		case domain.DiscountPercent:
			pct := math.Min(value, 100)
			discount = Round(subtotal * pct / 100)
		case domain.DiscountFixed:
			discount = Round(value)
		}
	}

	if discount > subtotal {
		discount = subtotal
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    Round(subtotal - discount),
	}
}

// BookingTotals prices a booking: participants clamped to >= 1, price
// per person clamped to >= 0, then ApplyDiscount.
func BookingTotals(pricePerPerson float64, participants int, discountType domain.DiscountType, value float64) Totals {
	if participants < 1 {
		participants = 1
	}
	if pricePerPerson < 0 {
		pricePerPerson = 0
	}
	subtotal := Round(pricePerPerson * float64(participants))
	return ApplyDiscount(subtotal, discountType, value)
}
