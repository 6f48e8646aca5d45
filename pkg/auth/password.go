package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost follows the OWASP 2026 work-factor recommendation
const BcryptCost = 14

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword compares a bcrypt hash against a plaintext candidate.
// Returns nil on match. Password strength policy lives upstream; this
// package only compares.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
