package models

import (
	"strings"
	"time"
)

// Role values carried on users and access tokens.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is a registered learner or administrator.
type User struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	Username              string     `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email                 string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash          string     `gorm:"size:255;not null" json:"-"`
	Role                  string     `gorm:"size:16;not null" json:"role"`
	IsVerified            bool       `gorm:"not null" json:"is_verified"`
	VerificationCode      string     `gorm:"size:12" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	AvatarURL             string     `gorm:"size:512" json:"avatar_url"`
	LastLoginAt           *time.Time `json:"last_login_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user may manage the catalog.
func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// VerificationValid reports whether code matches the pending verification code at now.
func (u User) VerificationValid(code string, now time.Time) bool {
	if u.VerificationCode == "" || u.VerificationExpiresAt == nil {
		return false
	}
	if now.After(*u.VerificationExpiresAt) {
		return false
	}
	return u.VerificationCode == strings.TrimSpace(code)
}
