package repositories

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"eshop/internal/apperrors"
	"eshop/internal/models"

	"github.com/google/uuid"
)

// InMemoryUserRepository is an in-memory implementation of UserRepository.
type InMemoryUserRepository struct {
	byID    map[string]models.User
	byEmail map[string]string // lowercased email -> id
	mu      sync.RWMutex
}

// NewInMemoryUserRepository creates a new instance of InMemoryUserRepository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create adds a new user.
func (r *InMemoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(user.Email)
	if _, taken := r.byEmail[key]; taken {
		return fmt.Errorf("email %s: %w", user.Email, apperrors.ErrAlreadyExists)
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = *user
	r.byEmail[key] = user.ID
	return nil
}

// GetByEmail returns the user registered with email.
func (r *InMemoryUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, apperrors.ErrNotFound)
	}
	user := r.byID[id]
	return &user, nil
}

// GetByID returns a user by its ID.
func (r *InMemoryUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	return &user, nil
}

// Update replaces a user, keeping the email index in step.
func (r *InMemoryUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return apperrors.NotFound("user", user.ID)
	}
	oldKey, newKey := emailKey(existing.Email), emailKey(user.Email)
	if oldKey != newKey {
		if _, taken := r.byEmail[newKey]; taken {
			return fmt.Errorf("email %s: %w", user.Email, apperrors.ErrAlreadyExists)
		}
		delete(r.byEmail, oldKey)
		r.byEmail[newKey] = user.ID
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	r.byID[user.ID] = *user
	return nil
}
