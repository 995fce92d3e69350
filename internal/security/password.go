// Package security holds the password policy and the credential hasher.
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"eshop/internal/apperrors"

	"golang.org/x/crypto/bcrypt"
)

// Scheme tags how a stored digest was produced.
type Scheme string

const (
	SchemeBcrypt       Scheme = "bcrypt"
	SchemeLegacySHA256 Scheme = "sha256" // unsalted single pass, verify-only
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

const specialCharacters = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// CheckPasswordStrength returns a ValidationError naming every rule password breaks.
func CheckPasswordStrength(password string) error {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialCharacters, r):
			special = true
		}
	}

	var missing []string
	if len([]rune(password)) < MinPasswordLength {
		missing = append(missing, fmt.Sprintf("at least %d characters", MinPasswordLength))
	}
	if !upper {
		missing = append(missing, "an uppercase letter")
	}
	if !lower {
		missing = append(missing, "a lowercase letter")
	}
	if !digit {
		missing = append(missing, "a digit")
	}
	if !special {
		missing = append(missing, "a special character")
	}
	if len(missing) > 0 {
		return apperrors.FieldError("password", "password must contain "+strings.Join(missing, ", "))
	}
	return nil
}

// IsStrongPassword reports whether password satisfies every strength rule.
func IsStrongPassword(password string) bool {
	return CheckPasswordStrength(password) == nil
}

// Credential is a digest together with the scheme that produced it.
type Credential struct {
	Scheme Scheme
	Digest string
}

// Verification is the outcome of Hasher.Verify. Rehash is set when the
// password matched a legacy credential; persisting it is up to the caller.
type Verification struct {
	OK     bool
	Rehash *Credential
}

// Hasher hashes new passwords with bcrypt and verifies stored credentials.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. Costs outside bcrypt's range fall back to the default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash produces a salted, iterated digest under the current scheme.
func (h *Hasher) Hash(password string) (Credential, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return Credential{Scheme: SchemeBcrypt, Digest: string(digest)}, nil
}

// Verify recomputes password under scheme and compares it with digest.
func (h *Hasher) Verify(password string, scheme Scheme, digest string) (Verification, error) {
	switch scheme {
	case SchemeBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
		if err == nil {
			return Verification{OK: true}, nil
		}
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return Verification{}, nil
		}
		return Verification{}, fmt.Errorf("failed to compare password: %w", err)
	case SchemeLegacySHA256:
		if subtle.ConstantTimeCompare([]byte(LegacyDigest(password)), []byte(digest)) != 1 {
			return Verification{}, nil
		}
		upgraded, err := h.Hash(password)
		if err != nil {
			return Verification{}, err
		}
		return Verification{OK: true, Rehash: &upgraded}, nil
	default:
		return Verification{}, nil
	}
}

// LegacyDigest is the hex SHA-256 of password used by pre-bcrypt accounts.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
