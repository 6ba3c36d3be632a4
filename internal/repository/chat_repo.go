package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// ChatRepository persists tutor chat sessions and their message history.
type ChatRepository interface {
	CreateSession(ctx context.Context, session *models.ChatSession) error
	GetSession(ctx context.Context, id string) (models.ChatSession, error)
	ListSessions(ctx context.Context, userID uint, limit int) ([]models.ChatSession, error)
	AppendMessages(ctx context.Context, sessionID string, messages ...*models.ChatMessage) error
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	ListMessages(ctx context.Context, sessionID string, before time.Time, limit int) ([]models.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateSession(ctx context.Context, session *models.ChatSession) error {
	return r.db.WithContext(ctx).Omit("Messages").Create(session).Error
}

func (r *chatRepository) GetSession(ctx context.Context, id string) (models.ChatSession, error) {
	var session models.ChatSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return models.ChatSession{}, err
	}
	return session, nil
}

func (r *chatRepository) ListSessions(ctx context.Context, userID uint, limit int) ([]models.ChatSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var sessions []models.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// AppendMessages stores the messages and bumps the session's updated_at in one transaction.
func (r *chatRepository) AppendMessages(ctx context.Context, sessionID string, messages ...*models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, message := range messages {
			message.SessionID = sessionID
			if err := tx.Create(message).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.ChatSession{}).
			Where("id = ?", sessionID).
			Update("updated_at", time.Now().UTC()).Error
	})
}

// RecentMessages returns the newest limit messages in chronological order.
func (r *chatRepository) RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	return r.ListMessages(ctx, sessionID, time.Time{}, limit)
}

func (r *chatRepository) ListMessages(ctx context.Context, sessionID string, before time.Time, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.ChatMessage
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse to chronological order ascending for clients.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
