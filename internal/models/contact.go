package models

import "time"

// Contact message delivery states.
const (
	ContactStatusQueued = "queued"
	ContactStatusSent   = "sent"
)

// ContactMessage stores an inbound message from the public contact form.
type ContactMessage struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ReferenceID string     `gorm:"size:64;uniqueIndex" json:"referenceId"`
	UserID      *uint      `gorm:"index" json:"userId,omitempty"`
	Name        string     `gorm:"size:120;not null" json:"name"`
	Email       string     `gorm:"size:160;not null" json:"email"`
	Subject     string     `gorm:"size:200;not null" json:"subject"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	Type        string     `gorm:"size:40" json:"type"`
	Status      string     `gorm:"size:32;not null" json:"status"`
	Checksum    string     `gorm:"size:128;index" json:"checksum"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
}
