package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// ContactRepository persists contact form messages.
type ContactRepository interface {
	Create(ctx context.Context, message *models.ContactMessage) error
	MarkDelivered(ctx context.Context, id uint, at time.Time) error
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository constructs a repository backed by GORM.
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, message *models.ContactMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *contactRepository) MarkDelivered(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.ContactStatusSent, "delivered_at": at}).
		Error
}
