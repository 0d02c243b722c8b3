package auth

import (
	"encoding/base64"
	"errors"

	"github.com/go-crypt/x/blake2b"
	"golang.org/x/crypto/bcrypt"

	"github.com/poiesic/sosai/core"
)

// bcrypt reads at most 72 bytes, so passwords are digested first and
// every allowed length contributes fully to the hash.
func digest(password string) []byte {
	sum := blake2b.Sum256([]byte(password))
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(sum)))
	base64.RawStdEncoding.Encode(out, sum[:])
	return out
}

// HashPassword validates password and returns its bcrypt hash.
func HashPassword(password string, cost int) (string, error) {
	if err := core.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword(digest(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), digest(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
