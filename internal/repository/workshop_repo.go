package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"workshopdesk/internal/domain"
)

type WorkshopRepository struct {
	db *gorm.DB
}

func NewWorkshopRepository(db *gorm.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

type workshopModel struct {
	ID             int64     `gorm:"column:id;primaryKey"`
	Title          string    `gorm:"column:title"`
	Description    string    `gorm:"column:description"`
	Capacity       int       `gorm:"column:capacity"`
	PricePerPerson float64   `gorm:"column:price_per_person"`
	Currency       string    `gorm:"column:currency"`
	Active         bool      `gorm:"column:active"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (workshopModel) TableName() string { return "workshops" }

func toDomainWorkshop(m workshopModel) *domain.Workshop {
	return &domain.Workshop{
		ID:             m.ID,
		Title:          m.Title,
		Description:    m.Description,
		Capacity:       m.Capacity,
		PricePerPerson: m.PricePerPerson,
		Currency:       m.Currency,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toWorkshopModel(w *domain.Workshop) workshopModel {
	return workshopModel{
		ID:             w.ID,
		Title:          w.Title,
		Description:    w.Description,
		Capacity:       w.Capacity,
		PricePerPerson: w.PricePerPerson,
		Currency:       w.Currency,
		Active:         w.Active,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

func (r *WorkshopRepository) Create(ctx context.Context, w *domain.Workshop) error {
	m := toWorkshopModel(w)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*w = *toDomainWorkshop(m)
	return nil
}

func (r *WorkshopRepository) Update(ctx context.Context, w *domain.Workshop) error {
	m := toWorkshopModel(w)
	return r.db.WithContext(ctx).Model(&workshopModel{}).Where("id = ?", w.ID).Updates(map[string]any{
		"title":            m.Title,
		"description":      m.Description,
		"capacity":         m.Capacity,
		"price_per_person": m.PricePerPerson,
		"currency":         m.Currency,
		"active":           m.Active,
	}).Error
}

func (r *WorkshopRepository) GetByID(ctx context.Context, id int64) (*domain.Workshop, error) {
	var m workshopModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainWorkshop(m), nil
}

func (r *WorkshopRepository) ListActive(ctx context.Context) ([]domain.Workshop, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("active = ?", true))
}

func (r *WorkshopRepository) ListAll(ctx context.Context) ([]domain.Workshop, error) {
	return r.list(ctx, r.db.WithContext(ctx))
}

func (r *WorkshopRepository) list(ctx context.Context, q *gorm.DB) ([]domain.Workshop, error) {
	var models []workshopModel
	if err := q.Order("title asc").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Workshop, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainWorkshop(m))
	}
	return out, nil
}
