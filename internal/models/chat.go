package models

import "time"

// Chat message roles.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatSession is one tutoring conversation, optionally anchored to a problem.
type ChatSession struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint          `gorm:"not null;index" json:"user_id"`
	ProblemID *uint         `gorm:"index" json:"problem_id"`
	Title     string        `gorm:"size:255" json:"title"`
	Messages  []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"messages,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ChatMessage is a single turn within a tutoring session.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:36;not null;index" json:"session_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
