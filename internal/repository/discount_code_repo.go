package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"workshopdesk/internal/domain"
)

type DiscountCodeRepository struct {
	db *gorm.DB
}

func NewDiscountCodeRepository(db *gorm.DB) *DiscountCodeRepository {
	return &DiscountCodeRepository{db: db}
}

type discountCodeModel struct {
	ID     int64   `gorm:"column:id;primaryKey"`
	Code   string  `gorm:"column:code;uniqueIndex"`
	Type   string  `gorm:"column:type"`
	Value  float64 `gorm:"column:value"`
	Active bool    `gorm:"column:active"`

	StartsAt  *time.Time `gorm:"column:starts_at"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`

	MaxTotalUses    int `gorm:"column:max_total_uses"`
	MaxUsesPerEmail int `gorm:"column:max_uses_per_email"`
	MinParticipants int `gorm:"column:min_participants"`

	// Flattened storage form only; the domain sees slices.
	AllowedWorkshopIDs string `gorm:"column:allowed_workshop_ids;type:text"`
	AllowedEmails      string `gorm:"column:allowed_emails;type:text"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (discountCodeModel) TableName() string { return "discount_codes" }

func toDomainDiscountCode(m discountCodeModel) *domain.DiscountCode {
	return &domain.DiscountCode{
		ID:                 m.ID,
		Code:               m.Code,
		Type:               domain.DiscountType(m.Type),
		Value:              m.Value,
		Active:             m.Active,
		StartsAt:           m.StartsAt,
		ExpiresAt:          m.ExpiresAt,
		MaxTotalUses:       m.MaxTotalUses,
		MaxUsesPerEmail:    m.MaxUsesPerEmail,
		MinParticipants:    m.MinParticipants,
		AllowedWorkshopIDs: splitIDs(m.AllowedWorkshopIDs),
		AllowedEmails:      splitLines(m.AllowedEmails),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toDiscountCodeModel(c *domain.DiscountCode) discountCodeModel {
	return discountCodeModel{
		ID:                 c.ID,
		Code:               c.Code,
		Type:               string(c.Type),
		Value:              c.Value,
		Active:             c.Active,
		StartsAt:           c.StartsAt,
		ExpiresAt:          c.ExpiresAt,
		MaxTotalUses:       c.MaxTotalUses,
		MaxUsesPerEmail:    c.MaxUsesPerEmail,
		MinParticipants:    c.MinParticipants,
		AllowedWorkshopIDs: joinIDs(c.AllowedWorkshopIDs),
		AllowedEmails:      joinLines(c.AllowedEmails),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func (r *DiscountCodeRepository) Create(ctx context.Context, c *domain.DiscountCode) error {
	m := toDiscountCodeModel(c)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	*c = *toDomainDiscountCode(m)
	return nil
}

func (r *DiscountCodeRepository) Update(ctx context.Context, c *domain.DiscountCode) error {
	m := toDiscountCodeModel(c)
	err := r.db.WithContext(ctx).Model(&discountCodeModel{}).Where("id = ?", c.ID).Updates(map[string]any{
		"code":                 m.Code,
		"type":                 m.Type,
		"value":                m.Value,
		"active":               m.Active,
		"starts_at":            m.StartsAt,
		"expires_at":           m.ExpiresAt,
		"max_total_uses":       m.MaxTotalUses,
		"max_uses_per_email":   m.MaxUsesPerEmail,
		"min_participants":     m.MinParticipants,
		"allowed_workshop_ids": m.AllowedWorkshopIDs,
		"allowed_emails":       m.AllowedEmails,
	}).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *DiscountCodeRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&discountCodeModel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DiscountCodeRepository) GetByID(ctx context.Context, id int64) (*domain.DiscountCode, error) {
	var m discountCodeModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainDiscountCode(m), nil
}

// GetByCode matches case-insensitively. Codes are stored normalized
// uppercase, but the lookup tolerates legacy rows.
func (r *DiscountCodeRepository) GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	var m discountCodeModel
	err := r.db.WithContext(ctx).Where("UPPER(code) = ?", strings.ToUpper(code)).First(&m).Error
	if err != nil {
		return nil, err
	}
	return toDomainDiscountCode(m), nil
}

func (r *DiscountCodeRepository) List(ctx context.Context) ([]domain.DiscountCode, error) {
	var models []discountCodeModel
	if err := r.db.WithContext(ctx).Order("code asc").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DiscountCode, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainDiscountCode(m))
	}
	return out, nil
}

// CountUsage derives the live usage count from booking rows; nothing is
// cached on the code itself.
func (r *DiscountCodeRepository) CountUsage(ctx context.Context, codeID int64) (int, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("discount_code_id = ?", codeID).
		Count(&cnt).Error
	return int(cnt), err
}

func (r *DiscountCodeRepository) CountUsageByEmail(ctx context.Context, codeID int64, email string) (int, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("discount_code_id = ? AND LOWER(email) = ?", codeID, strings.ToLower(email)).
		Count(&cnt).Error
	return int(cnt), err
}
