package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// UserRepository persists platform accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (emailTaken bool, usernameTaken bool, err error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetByIdentifier resolves a login identifier that may be a username or an email.
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return r.GetByEmail(ctx, identifier)
	}

	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", identifier).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, bool, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "username").
		Where("LOWER(email) = ? OR username = ?", strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(username)).
		Find(&users).Error
	if err != nil {
		return false, false, err
	}

	var emailTaken, usernameTaken bool
	for _, user := range users {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			emailTaken = true
		}
		if user.Username == strings.TrimSpace(username) {
			usernameTaken = true
		}
	}
	return emailTaken, usernameTaken, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", strings.TrimSpace(username)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
