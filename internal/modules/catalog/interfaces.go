package catalog

import (
	"context"

	"workshopdesk/internal/domain"
)

type WorkshopRepository interface {
	Create(ctx context.Context, w *domain.Workshop) error
	Update(ctx context.Context, w *domain.Workshop) error
	GetByID(ctx context.Context, id int64) (*domain.Workshop, error)
	ListActive(ctx context.Context) ([]domain.Workshop, error)
	ListAll(ctx context.Context) ([]domain.Workshop, error)
}

// SeatCounter exposes the confirmed seat total of a workshop. The
// booking module provides it.
type SeatCounter interface {
	ConfirmedSeatTotal(ctx context.Context, workshopID int64) (int, error)
}
