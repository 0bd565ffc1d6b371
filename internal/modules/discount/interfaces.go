package discount

import (
	"context"

	"workshopdesk/internal/domain"
)

// CodeRepository is the slice of storage the rule engine needs. Usage
// counts are live queries over booking rows, never cached counters.
type CodeRepository interface {
	Create(ctx context.Context, c *domain.DiscountCode) error
	Update(ctx context.Context, c *domain.DiscountCode) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.DiscountCode, error)
	GetByCode(ctx context.Context, code string) (*domain.DiscountCode, error)
	List(ctx context.Context) ([]domain.DiscountCode, error)
	CountUsage(ctx context.Context, codeID int64) (int, error)
	CountUsageByEmail(ctx context.Context, codeID int64, email string) (int, error)
}
