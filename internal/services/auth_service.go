package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"eshop/internal/apperrors"
	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/security"
	"eshop/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long a session token stays valid when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// AuthService handles registration, login and session tokens.
type AuthService struct {
	userRepo  repositories.UserRepository
	hasher    *security.Hasher
	validate  *validator.Validate
	jwtSecret []byte
	tokenTTL  time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, hasher *security.Hasher, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		userRepo:  userRepo,
		hasher:    hasher,
		validate:  validation.New(),
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		revoked:   make(map[string]time.Time),
	}
}

// RegisterUser validates the sign-up form, hashes the password and stores the account.
func (s *AuthService) RegisterUser(input models.Registration) (*models.User, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validation.Struct(s.validate, input); err != nil {
		return nil, err
	}
	if err := security.CheckPasswordStrength(input.Password); err != nil {
		return nil, err
	}
	if existing, err := s.userRepo.GetByEmail(input.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s' already registered: %w", input.Email, apperrors.ErrAlreadyExists)
	}

	credential, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:          input.Email,
		PasswordHash:   credential.Digest,
		PasswordScheme: string(credential.Scheme),
		FirstName:      strings.TrimSpace(input.FirstName),
		LastName:       strings.TrimSpace(input.LastName),
		Address:        strings.TrimSpace(input.Address),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// LoginUser authenticates a user and returns a signed session token.
// Accounts still on the legacy hash are moved to bcrypt on success.
func (s *AuthService) LoginUser(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(strings.TrimSpace(email))
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	result, err := s.hasher.Verify(password, security.Scheme(user.PasswordScheme), user.PasswordHash)
	if err != nil {
		return "", nil, err
	}
	if !result.OK {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if result.Rehash != nil {
		user.PasswordHash = result.Rehash.Digest
		user.PasswordScheme = string(result.Rehash.Scheme)
		// The legacy digest still verifies, so a failed upgrade is retried at the next login.
		_ = s.userRepo.Update(user)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v: %w", err, apperrors.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	}
	if jti, _ := claims["jti"].(string); s.isRevoked(jti) {
		return nil, fmt.Errorf("invalid token: revoked: %w", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(tokenString string) error {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return fmt.Errorf("invalid token: missing id: %w", apperrors.ErrUnauthorized)
	}
	expiry := time.Now().Add(s.tokenTTL)
	if exp, ok := claims["exp"].(float64); ok {
		expiry = time.Unix(int64(exp), 0)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, until := range s.revoked {
		if now.After(until) {
			delete(s.revoked, id)
		}
	}
	s.revoked[jti] = expiry
	return nil
}

func (s *AuthService) isRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"jti":     uuid.New().String(),
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}
