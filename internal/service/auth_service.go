package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/repository"
)

const (
	passwordHashCost       = 12
	defaultVerificationTTL = 24 * time.Hour
	defaultAvatarMaxSizeMB = 2
)

var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials indicates an unknown identifier or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotVerified indicates the account has not confirmed its email yet.
	ErrAccountNotVerified = errors.New("account email not verified")
	// ErrInvalidVerificationCode indicates the code is wrong or expired.
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")
	// ErrAlreadyVerified indicates a resend was requested for a verified account.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrAvatarRequired indicates no file was attached.
	ErrAvatarRequired = errors.New("avatar file is required")
	// ErrAvatarTooLarge indicates the avatar exceeded the configured limit.
	ErrAvatarTooLarge = errors.New("avatar exceeds maximum allowed size")
	// ErrAvatarTypeNotAllowed indicates the avatar is not a supported image.
	ErrAvatarTypeNotAllowed = errors.New("avatar must be a png, jpeg, webp or gif image")
	// ErrAvatarStorageUnavailable indicates no avatar storage is configured.
	ErrAvatarStorageUnavailable = errors.New("avatar storage is not configured")
)

// VerificationSender hands verification codes to whatever delivers them.
type VerificationSender interface {
	SendVerification(ctx context.Context, user models.User, code string) error
}

// AvatarStorage persists avatar images and returns their public URL.
type AvatarStorage interface {
	UploadAvatar(ctx context.Context, userID uint, reader io.Reader) (string, error)
}

// AuthConfig tunes the auth service.
type AuthConfig struct {
	VerificationTTL time.Duration
	AvatarMaxSizeMB int
}

// AuthService manages accounts and credentials.
type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (dto.SignupResponse, error)
	Verify(ctx context.Context, req dto.VerifyRequest) (dto.UserResponse, error)
	ResendVerification(ctx context.Context, req dto.ResendVerificationRequest) error
	CheckUsername(ctx context.Context, req dto.UsernameCheckRequest) (dto.UsernameCheckResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (dto.LoginResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	UploadAvatar(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	tokens    *TokenIssuer
	sender    VerificationSender
	avatars   AvatarStorage
	validator *validator.Validate
	logger    zerolog.Logger
	cfg       AuthConfig
	now       func() time.Time
	newCode   func() (string, error)
}

// NewAuthService constructs the auth service. avatars may be nil when no storage is configured.
func NewAuthService(users repository.UserRepository, tokens *TokenIssuer, sender VerificationSender, avatars AvatarStorage, validate *validator.Validate, cfg AuthConfig, logger zerolog.Logger) AuthService {
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = defaultVerificationTTL
	}
	if cfg.AvatarMaxSizeMB <= 0 {
		cfg.AvatarMaxSizeMB = defaultAvatarMaxSizeMB
	}
	return &authService{
		users:     users,
		tokens:    tokens,
		sender:    sender,
		avatars:   avatars,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newCode:   generateVerificationCode,
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (dto.SignupResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return dto.SignupResponse{}, err
	}

	emailTaken, usernameTaken, err := s.users.ExistsByEmailOrUsername(ctx, req.Email, req.Username)
	if err != nil {
		return dto.SignupResponse{}, fmt.Errorf("check existing account: %w", err)
	}
	if emailTaken {
		return dto.SignupResponse{}, ErrEmailTaken
	}
	if usernameTaken {
		return dto.SignupResponse{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		return dto.SignupResponse{}, fmt.Errorf("hash password: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return dto.SignupResponse{}, fmt.Errorf("generate verification code: %w", err)
	}
	expires := s.now().Add(s.cfg.VerificationTTL)

	user := models.User{
		Username:              req.Username,
		Email:                 req.Email,
		PasswordHash:          string(hash),
		Role:                  models.RoleStudent,
		VerificationCode:      code,
		VerificationExpiresAt: &expires,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.SignupResponse{}, fmt.Errorf("create user: %w", err)
	}

	s.sendVerification(ctx, user, code)
	s.logger.Info().Uint("user_id", user.ID).Str("email", maskEmailAddress(user.Email)).Msg("account registered")

	return dto.SignupResponse{UserID: user.ID, Email: user.Email, RequiresVerification: true}, nil
}

func (s *authService) Verify(ctx context.Context, req dto.VerifyRequest) (dto.UserResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrInvalidVerificationCode
		}
		return dto.UserResponse{}, fmt.Errorf("load user: %w", err)
	}
	if user.IsVerified {
		return dto.NewUserResponse(user), nil
	}
	if !user.VerificationValid(req.Code, s.now()) {
		return dto.UserResponse{}, ErrInvalidVerificationCode
	}

	user.IsVerified = true
	user.VerificationCode = ""
	user.VerificationExpiresAt = nil
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, fmt.Errorf("update user: %w", err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) ResendVerification(ctx context.Context, req dto.ResendVerificationRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	expires := s.now().Add(s.cfg.VerificationTTL)
	user.VerificationCode = code
	user.VerificationExpiresAt = &expires
	if err := s.users.Update(ctx, &user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.sendVerification(ctx, user, code)
	return nil
}

func (s *authService) sendVerification(ctx context.Context, user models.User, code string) {
	if s.sender == nil {
		return
	}
	if err := s.sender.SendVerification(ctx, user, code); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Str("email", maskEmailAddress(user.Email)).Msg("failed to send verification code")
	}
}

func (s *authService) CheckUsername(ctx context.Context, req dto.UsernameCheckRequest) (dto.UsernameCheckResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return dto.UsernameCheckResponse{}, err
	}

	exists, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return dto.UsernameCheckResponse{}, fmt.Errorf("check username: %w", err)
	}
	return dto.UsernameCheckResponse{Username: req.Username, Exists: exists}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	req.Identifier = strings.TrimSpace(req.Identifier)
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return dto.LoginResponse{}, ErrAccountNotVerified
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.LoginResponse{}, fmt.Errorf("update last login: %w", err)
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")
	return dto.LoginResponse{TokenPair: pair, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	userID, err := s.tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidRefreshToken
		}
		return dto.LoginResponse{}, fmt.Errorf("load user: %w", err)
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	return dto.LoginResponse{TokenPair: pair, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, fmt.Errorf("load user: %w", err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) UploadAvatar(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error) {
	if s.avatars == nil {
		return dto.UserResponse{}, ErrAvatarStorageUnavailable
	}
	if file == nil {
		return dto.UserResponse{}, ErrAvatarRequired
	}

	maxSize := int64(s.cfg.AvatarMaxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return dto.UserResponse{}, ErrAvatarTooLarge
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, fmt.Errorf("load user: %w", err)
	}

	handle, err := file.Open()
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("open avatar: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, maxSize+1)); err != nil {
		return dto.UserResponse{}, fmt.Errorf("read avatar: %w", err)
	}
	if int64(buf.Len()) > maxSize {
		return dto.UserResponse{}, ErrAvatarTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	if !mime.Is("image/png") && !mime.Is("image/jpeg") && !mime.Is("image/webp") && !mime.Is("image/gif") {
		return dto.UserResponse{}, ErrAvatarTypeNotAllowed
	}

	url, err := s.avatars.UploadAvatar(ctx, user.ID, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("store avatar: %w", err)
	}

	user.AvatarURL = url
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, fmt.Errorf("update user: %w", err)
	}
	s.logger.Info().Uint("user_id", user.ID).Str("mime", mime.String()).Msg("avatar updated")
	return dto.NewUserResponse(user), nil
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

type eventVerificationSender struct {
	events EventPublisher
	ttl    time.Duration
}

// NewVerificationSender publishes verification codes as events for the mail worker.
func NewVerificationSender(events EventPublisher, ttl time.Duration) VerificationSender {
	if ttl <= 0 {
		ttl = defaultVerificationTTL
	}
	return &eventVerificationSender{events: events, ttl: ttl}
}

func (s *eventVerificationSender) SendVerification(ctx context.Context, user models.User, code string) error {
	expires := time.Now().UTC().Add(s.ttl)
	if user.VerificationExpiresAt != nil {
		expires = *user.VerificationExpiresAt
	}
	return s.events.Publish(ctx, SubjectUserVerification, VerificationEvent{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Code:      code,
		ExpiresAt: expires,
	})
}
