package repositories

import (
	"errors"
	"fmt"

	"eshop/internal/apperrors"
	"eshop/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
// Emails are stored lowercased so the unique index is case-insensitive.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

func (r *GORMUserRepository) emailTaken(email, exceptID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ? AND id <> ?", emailKey(email), exceptID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email %s: %w", email, err)
	}
	return count > 0, nil
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	taken, err := r.emailTaken(user.Email, "")
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("email %s: %w", user.Email, apperrors.ErrAlreadyExists)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = emailKey(user.Email)
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", emailKey(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

// Update saves every field of an existing user.
func (r *GORMUserRepository) Update(user *models.User) error {
	taken, err := r.emailTaken(user.Email, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("email %s: %w", user.Email, apperrors.ErrAlreadyExists)
	}
	user.Email = emailKey(user.Email)
	res := r.db.Model(&models.User{}).Where("id = ?", user.ID).Select("*").Omit("id", "created_at").Updates(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("user", user.ID)
	}
	return nil
}
