package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"workshopdesk/internal/domain"
)

// EmailOutboxRepository stores rendered messages for a delivery worker
// to pick up. The engine never talks SMTP directly.
type EmailOutboxRepository struct {
	db *gorm.DB
}

func NewEmailOutboxRepository(db *gorm.DB) *EmailOutboxRepository {
	return &EmailOutboxRepository{db: db}
}

type emailMessageModel struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	Kind      string     `gorm:"column:kind;index"`
	Recipient string     `gorm:"column:recipient"`
	Subject   string     `gorm:"column:subject"`
	Body      string     `gorm:"column:body"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	SentAt    *time.Time `gorm:"column:sent_at;index"`
}

func (emailMessageModel) TableName() string { return "email_outbox" }

func toDomainEmailMessage(m emailMessageModel) *domain.EmailMessage {
	return &domain.EmailMessage{
		ID:        m.ID,
		Kind:      domain.NotificationKind(m.Kind),
		Recipient: m.Recipient,
		Subject:   m.Subject,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		SentAt:    m.SentAt,
	}
}

func (r *EmailOutboxRepository) Create(ctx context.Context, msg *domain.EmailMessage) error {
	m := emailMessageModel{
		Kind:      string(msg.Kind),
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Body:      msg.Body,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*msg = *toDomainEmailMessage(m)
	return nil
}

func (r *EmailOutboxRepository) ListUnsent(ctx context.Context, limit int) ([]domain.EmailMessage, error) {
	var models []emailMessageModel
	q := r.db.WithContext(ctx).Where("sent_at IS NULL").Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.EmailMessage, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainEmailMessage(m))
	}
	return out, nil
}

func (r *EmailOutboxRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&emailMessageModel{}).
		Where("id = ? AND sent_at IS NULL", id).
		Update("sent_at", at).Error
}
