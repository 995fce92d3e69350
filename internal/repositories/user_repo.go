package repositories

import "eshop/internal/models"

// UserRepository defines the interface for user data access.
// Email lookups are case-insensitive and emails are unique.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	Update(user *models.User) error
}
