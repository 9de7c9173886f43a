package utils

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxInput is the longest input bcrypt accepts.
const bcryptMaxInput = 72

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	return NewPasswordHasher(bcrypt.DefaultCost)(password)
}

// NewPasswordHasher returns a bcrypt hasher with the given cost.
// Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) func(string) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return func(password string) (string, error) {
		bytes, err := bcrypt.GenerateFromPassword(bcryptInput(password), cost)
		return string(bytes), err
	}
}

// CheckPassword compares plain password with hashed password.
func CheckPassword(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), bcryptInput(plain))
	return err == nil
}

// bcryptInput returns password unchanged when bcrypt can take it, otherwise
// the base64 of its SHA-256 digest.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
