package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"workshopdesk/internal/domain"
)

type Service struct {
	admins AdminRepository
	jwt    tokenIssuer
}

type LoginResult struct {
	Admin *domain.AdminUser `json:"admin"`
	Token string            `json:"token"`
}

func NewService(admins AdminRepository, jwt tokenIssuer) *Service {
	return &Service{admins: admins, jwt: jwt}
}

// Login checks credentials and issues a session token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(admin.ID, string(admin.Role))
	if err != nil {
		return nil, err
	}

	return &LoginResult{Admin: admin, Token: token}, nil
}

// HashPassword is used by the seeder when creating staff accounts.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
