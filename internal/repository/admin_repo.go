package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"workshopdesk/internal/domain"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

type adminModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	Name         string    `gorm:"column:name"`
	Role         string    `gorm:"column:role"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (adminModel) TableName() string { return "admin_users" }

func toDomainAdmin(m adminModel) *domain.AdminUser {
	return &domain.AdminUser{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
	}
}

func (r *AdminRepository) Create(ctx context.Context, a *domain.AdminUser) error {
	m := adminModel{
		Email:        strings.ToLower(a.Email),
		PasswordHash: a.PasswordHash,
		Name:         a.Name,
		Role:         string(a.Role),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	*a = *toDomainAdmin(m)
	return nil
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	var m adminModel
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&m).Error
	if err != nil {
		return nil, err
	}
	return toDomainAdmin(m), nil
}
