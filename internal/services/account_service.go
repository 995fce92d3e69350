package services

import (
	"errors"
	"fmt"
	"strings"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/security"
	"eshop/internal/validation"

	"github.com/go-playground/validator/v10"
)

// AccountService lets a signed-in customer maintain their account.
type AccountService struct {
	userRepo repositories.UserRepository
	hasher   *security.Hasher
	validate *validator.Validate
}

// NewAccountService creates a new AccountService.
func NewAccountService(userRepo repositories.UserRepository, hasher *security.Hasher) *AccountService {
	return &AccountService{
		userRepo: userRepo,
		hasher:   hasher,
		validate: validation.New(),
	}
}

// GetProfile returns the account of userID.
func (s *AccountService) GetProfile(userID string) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// UpdateProfile replaces the names and the delivery address.
func (s *AccountService) UpdateProfile(userID string, profile models.Profile) (*models.User, error) {
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	profile.Address = strings.TrimSpace(profile.Address)
	if err := validation.Struct(s.validate, profile); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	user.FirstName = profile.FirstName
	user.LastName = profile.LastName
	user.Address = profile.Address
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangeEmail moves the account to a new, unused address.
func (s *AccountService) ChangeEmail(userID string, change models.EmailChange) (*models.User, error) {
	change.Email = strings.TrimSpace(change.Email)
	change.ConfirmEmail = strings.TrimSpace(change.ConfirmEmail)
	if err := validation.Struct(s.validate, change); err != nil {
		return nil, err
	}
	user, err := s.authorize(userID, change.CurrentPassword)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(user.Email, change.Email) {
		return user, nil
	}
	if existing, err := s.userRepo.GetByEmail(change.Email); err == nil && existing.ID != user.ID {
		return nil, fmt.Errorf("email '%s' already registered: %w", change.Email, apperrors.ErrAlreadyExists)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user.Email = change.Email
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to change email: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(userID string, change models.PasswordChange) error {
	if err := validation.Struct(s.validate, change); err != nil {
		return err
	}
	if err := security.CheckPasswordStrength(change.NewPassword); err != nil {
		return err
	}
	user, err := s.authorize(userID, change.CurrentPassword)
	if err != nil {
		return err
	}
	credential, err := s.hasher.Hash(change.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = credential.Digest
	user.PasswordScheme = string(credential.Scheme)
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// authorize loads the account and checks password against it. A legacy
// credential is upgraded on the returned user; the caller's Update persists it.
func (s *AccountService) authorize(userID, password string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	result, err := s.hasher.Verify(password, security.Scheme(user.PasswordScheme), user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("current password: %w", apperrors.ErrInvalidCredentials)
	}
	if result.Rehash != nil {
		user.PasswordHash = result.Rehash.Digest
		user.PasswordScheme = string(result.Rehash.Scheme)
	}
	return user, nil
}
