package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"workshopdesk/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	WorkshopID   int64  `gorm:"column:workshop_id;index"`
	Name         string `gorm:"column:name"`
	Email        string `gorm:"column:email;index"`
	Organization string `gorm:"column:organization"`
	Phone        string `gorm:"column:phone"`
	Message      string `gorm:"column:message;type:text"`

	Participants     int    `gorm:"column:participants"`
	Mode             string `gorm:"column:mode"`
	ParticipantNames string `gorm:"column:participant_names;type:text"`

	State string  `gorm:"column:state;index"`
	Token *string `gorm:"column:token;uniqueIndex"`

	PricePerPerson float64 `gorm:"column:price_per_person"`
	Currency       string  `gorm:"column:currency"`
	Subtotal       float64 `gorm:"column:subtotal"`
	Discount       float64 `gorm:"column:discount"`
	Total          float64 `gorm:"column:total"`
	DiscountCodeID *int64  `gorm:"column:discount_code_id;index"`
	DiscountType   string  `gorm:"column:discount_type"`
	DiscountValue  float64 `gorm:"column:discount_value"`

	CreatedAt   time.Time  `gorm:"column:created_at"`
	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var tok string
	if m.Token != nil {
		tok = *m.Token
	}

	return &domain.Booking{
		ID:               m.ID,
		WorkshopID:       m.WorkshopID,
		Name:             m.Name,
		Email:            m.Email,
		Organization:     m.Organization,
		Phone:            m.Phone,
		Message:          m.Message,
		Participants:     m.Participants,
		Mode:             domain.BookingMode(m.Mode),
		ParticipantNames: splitLines(m.ParticipantNames),
		State:            domain.BookingState(m.State),
		Token:            tok,
		PricePerPerson:   m.PricePerPerson,
		Currency:         m.Currency,
		Subtotal:         m.Subtotal,
		Discount:         m.Discount,
		Total:            m.Total,
		DiscountCodeID:   m.DiscountCodeID,
		DiscountType:     domain.DiscountType(m.DiscountType),
		DiscountValue:    m.DiscountValue,
		CreatedAt:        m.CreatedAt,
		ConfirmedAt:      m.ConfirmedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var tok *string
	if b.Token != "" {
		v := b.Token
		tok = &v
	}

	return bookingModel{
		ID:               b.ID,
		WorkshopID:       b.WorkshopID,
		Name:             b.Name,
		Email:            b.Email,
		Organization:     b.Organization,
		Phone:            b.Phone,
		Message:          b.Message,
		Participants:     b.Participants,
		Mode:             string(b.Mode),
		ParticipantNames: joinLines(b.ParticipantNames),
		State:            string(b.State),
		Token:            tok,
		PricePerPerson:   b.PricePerPerson,
		Currency:         b.Currency,
		Subtotal:         b.Subtotal,
		Discount:         b.Discount,
		Total:            b.Total,
		DiscountCodeID:   b.DiscountCodeID,
		DiscountType:     string(b.DiscountType),
		DiscountValue:    b.DiscountValue,
		CreatedAt:        b.CreatedAt,
		ConfirmedAt:      b.ConfirmedAt,
	}
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

// GetByToken looks the token up by exact match only.
func (r *BookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ListByWorkshop(ctx context.Context, workshopID int64) ([]domain.Booking, error) {
	var models []bookingModel
	err := r.db.WithContext(ctx).
		Where("workshop_id = ?", workshopID).
		Order("created_at desc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// HasConfirmedForEmail reports whether the email already holds a
// confirmed booking for the workshop. Pending duplicates are allowed.
func (r *BookingRepository) HasConfirmedForEmail(ctx context.Context, workshopID int64, email string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("workshop_id = ? AND state = ? AND LOWER(email) = ?",
			workshopID, string(domain.BookingConfirmed), strings.ToLower(email)).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// ConfirmedSeatTotal sums participants over confirmed bookings for the
// workshop, always from current rows, never cached. excludeBookingID
// keeps an edited booking from counting against itself; 0 excludes
// nothing.
func (r *BookingRepository) ConfirmedSeatTotal(ctx context.Context, workshopID int64, excludeBookingID int64) (int, error) {
	return confirmedSeatTotal(r.db.WithContext(ctx), workshopID, excludeBookingID)
}

func confirmedSeatTotal(tx *gorm.DB, workshopID int64, excludeBookingID int64) (int, error) {
	q := tx.Model(&bookingModel{}).
		Where("workshop_id = ? AND state = ?", workshopID, string(domain.BookingConfirmed))
	if excludeBookingID > 0 {
		q = q.Where("id <> ?", excludeBookingID)
	}

	var sum *int64
	if err := q.Select("SUM(participants)").Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return int(*sum), nil
}

// ConfirmResult is the outcome of the atomic confirm transaction.
type ConfirmResult struct {
	Status  domain.ConfirmStatus
	Booking *domain.Booking
}

// Confirm flips a pending booking to confirmed inside a single
// transaction: lock the workshop row, re-derive the confirmed seat
// total, then update conditionally on state = pending. Zero affected
// rows means a lost race and is treated as a defined outcome, never as
// success. Used by both the token path and the manual admin path.
func (r *BookingRepository) Confirm(ctx context.Context, bookingID int64, now time.Time) (*ConfirmResult, error) {
	var res ConfirmResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bm bookingModel
		if err := tx.First(&bm, bookingID).Error; err != nil {
			return err
		}

		if bm.State == string(domain.BookingConfirmed) {
			res = ConfirmResult{Status: domain.ConfirmAlready, Booking: toDomainBooking(bm)}
			return nil
		}

		// Serializes concurrent confirmations for the same workshop.
		var wm workshopModel
		if err := lockForUpdate(tx).First(&wm, bm.WorkshopID).Error; err != nil {
			return err
		}

		if wm.Capacity > 0 {
			taken, err := confirmedSeatTotal(tx, bm.WorkshopID, 0)
			if err != nil {
				return err
			}
			if taken+bm.Participants > wm.Capacity {
				res = ConfirmResult{Status: domain.ConfirmFull, Booking: toDomainBooking(bm)}
				return nil
			}
		}

		update := tx.Model(&bookingModel{}).
			Where("id = ? AND state = ?", bookingID, string(domain.BookingPending)).
			Updates(map[string]any{
				"state":        string(domain.BookingConfirmed),
				"confirmed_at": now,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			// Lost a race despite the lock. Re-read to tell "someone
			// confirmed it first" apart from "someone took the seats".
			var cur bookingModel
			if err := tx.First(&cur, bookingID).Error; err != nil {
				return err
			}
			status := domain.ConfirmFull
			if cur.State == string(domain.BookingConfirmed) {
				status = domain.ConfirmAlready
			}
			res = ConfirmResult{Status: status, Booking: toDomainBooking(cur)}
			return nil
		}

		bm.State = string(domain.BookingConfirmed)
		bm.ConfirmedAt = &now
		res = ConfirmResult{Status: domain.ConfirmOK, Booking: toDomainBooking(bm)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SaveEdit persists an admin edit. Whenever the booking is or becomes
// confirmed the capacity is re-validated against all other confirmed
// bookings inside the same transaction; a violation returns
// ErrCapacityExceeded and nothing is written. The booking's own row is
// excluded from the seat total so shrinking or keeping its count never
// collides with itself.
func (r *BookingRepository) SaveEdit(ctx context.Context, b *domain.Booking, confirm bool, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wm workshopModel
		if err := lockForUpdate(tx).First(&wm, b.WorkshopID).Error; err != nil {
			return err
		}

		if (confirm || b.State == domain.BookingConfirmed) && wm.Capacity > 0 {
			taken, err := confirmedSeatTotal(tx, b.WorkshopID, b.ID)
			if err != nil {
				return err
			}
			if taken+b.Participants > wm.Capacity {
				return ErrCapacityExceeded
			}
		}

		updates := map[string]any{
			"name":              b.Name,
			"email":             b.Email,
			"organization":      b.Organization,
			"phone":             b.Phone,
			"message":           b.Message,
			"participants":      b.Participants,
			"mode":              string(b.Mode),
			"participant_names": joinLines(b.ParticipantNames),
			"subtotal":          b.Subtotal,
			"discount":          b.Discount,
			"total":             b.Total,
			"price_per_person":  b.PricePerPerson,
		}
		if confirm && b.State == domain.BookingPending {
			updates["state"] = string(domain.BookingConfirmed)
			updates["confirmed_at"] = now
			b.State = domain.BookingConfirmed
			b.ConfirmedAt = &now
		}

		return tx.Model(&bookingModel{}).Where("id = ?", b.ID).Updates(updates).Error
	})
}

// Delete removes the row physically.
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&bookingModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
