package auth

import (
	"context"

	"workshopdesk/internal/domain"
)

type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
}

type tokenIssuer interface {
	GenerateToken(adminID int64, role string) (string, error)
}
