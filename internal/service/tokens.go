package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/middleware"
	"github.com/noah-isme/loopwar-api/internal/models"
)

// ErrInvalidRefreshToken indicates the refresh token is malformed, expired or of the wrong type.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// TokenConfig controls JWT issuance.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenIssuer signs and verifies HS256 access and refresh tokens.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer. The refresh secret falls back to the access secret.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue returns a fresh access and refresh token for the user.
func (i *TokenIssuer) Issue(user models.User) (dto.TokenPair, error) {
	now := i.now().UTC()
	accessExpires := now.Add(i.cfg.AccessTTL)
	refreshExpires := now.Add(i.cfg.RefreshTTL)

	access, err := i.sign(user, middleware.TokenTypeAccess, now, accessExpires, i.cfg.AccessSecret)
	if err != nil {
		return dto.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := i.sign(user, middleware.TokenTypeRefresh, now, refreshExpires, i.cfg.RefreshSecret)
	if err != nil {
		return dto.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return dto.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresAt:        accessExpires,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

func (i *TokenIssuer) sign(user models.User, typ string, issuedAt, expiresAt time.Time, secret string) (string, error) {
	claims := middleware.Claims{
		Role: user.Role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseRefresh validates a refresh token and returns the user id it was issued for.
func (i *TokenIssuer) ParseRefresh(tokenString string) (uint, error) {
	claims, err := middleware.ParseClaims(tokenString, i.cfg.RefreshSecret, jwt.WithTimeFunc(i.now))
	if err != nil || claims.Type != middleware.TokenTypeRefresh {
		return 0, ErrInvalidRefreshToken
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, ErrInvalidRefreshToken
	}
	return id, nil
}
