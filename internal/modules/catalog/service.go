package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"workshopdesk/internal/domain"
	"workshopdesk/internal/pkg/money"
)

type Service struct {
	workshops WorkshopRepository
	seats     SeatCounter
}

func NewService(workshops WorkshopRepository, seats SeatCounter) *Service {
	return &Service{workshops: workshops, seats: seats}
}

// ListPublic returns active workshops with availability attached.
func (s *Service) ListPublic(ctx context.Context) ([]WorkshopView, error) {
	workshops, err := s.workshops.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.withAvailability(ctx, workshops)
}

// ListAll is the staff view: inactive workshops included.
func (s *Service) ListAll(ctx context.Context) ([]WorkshopView, error) {
	workshops, err := s.workshops.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withAvailability(ctx, workshops)
}

func (s *Service) Get(ctx context.Context, id int64) (*WorkshopView, error) {
	w, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	view, err := s.view(ctx, *w)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *Service) Create(ctx context.Context, req WorkshopRequest) (*domain.Workshop, error) {
	if err := checkWorkshop(req); err != nil {
		return nil, err
	}

	w := &domain.Workshop{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Capacity:       req.Capacity,
		PricePerPerson: money.Round(req.PricePerPerson),
		Currency:       strings.ToUpper(req.Currency),
		Active:         true,
	}
	if req.Active != nil {
		w.Active = *req.Active
	}

	if err := s.workshops.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Update rewrites the catalog entry. Existing bookings keep their price
// snapshots; only new bookings see the new price.
func (s *Service) Update(ctx context.Context, id int64, req WorkshopRequest) (*domain.Workshop, error) {
	if err := checkWorkshop(req); err != nil {
		return nil, err
	}

	w, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	w.Title = strings.TrimSpace(req.Title)
	w.Description = req.Description
	w.Capacity = req.Capacity
	w.PricePerPerson = money.Round(req.PricePerPerson)
	w.Currency = strings.ToUpper(req.Currency)
	if req.Active != nil {
		w.Active = *req.Active
	}

	if err := s.workshops.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) withAvailability(ctx context.Context, workshops []domain.Workshop) ([]WorkshopView, error) {
	out := make([]WorkshopView, 0, len(workshops))
	for _, w := range workshops {
		view, err := s.view(ctx, w)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, w domain.Workshop) (WorkshopView, error) {
	taken, err := s.seats.ConfirmedSeatTotal(ctx, w.ID)
	if err != nil {
		return WorkshopView{}, err
	}

	view := WorkshopView{Workshop: w, ConfirmedSeats: taken}
	if !w.Unlimited() {
		remaining := w.Capacity - taken
		if remaining < 0 {
			remaining = 0
		}
		view.RemainingSeats = &remaining
	}
	return view, nil
}

func checkWorkshop(req WorkshopRequest) error {
	if strings.TrimSpace(req.Title) == "" || req.Capacity < 0 || req.PricePerPerson < 0 {
		return ErrValidation
	}
	if len(req.Currency) != 3 {
		return ErrValidation
	}
	return nil
}
