package dto

import (
	"time"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// SignupRequest registers a new account.
type SignupRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,strong_password"`
}

// SignupResponse acknowledges a registration awaiting verification.
type SignupResponse struct {
	UserID               uint   `json:"userId"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requiresVerification"`
}

// VerifyRequest confirms an email address.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ResendVerificationRequest asks for a fresh verification code.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UsernameCheckRequest asks whether a username is already registered.
type UsernameCheckRequest struct {
	Username string `json:"username" validate:"required,max=30"`
}

// UsernameCheckResponse reports whether the username is taken.
type UsernameCheckResponse struct {
	Username string `json:"username"`
	Exists   bool   `json:"exists"`
}

// LoginRequest authenticates with a username or email.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254"`
	Password   string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenPair carries the issued credentials.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	TokenType        string    `json:"tokenType"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// LoginResponse is returned after a successful login or refresh.
type LoginResponse struct {
	TokenPair
	User UserResponse `json:"user"`
}

// UserResponse is the public profile of an account.
type UserResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsVerified  bool       `json:"isVerified"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewUserResponse converts a user model.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		IsVerified:  user.IsVerified,
		AvatarURL:   user.AvatarURL,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
