package auth

import "errors"

var (
	// ErrEmailTaken is returned by Signup when the email is registered.
	ErrEmailTaken = errors.New("email already exists")

	// ErrInvalidCredentials is returned by Login for an unknown email or
	// a wrong password. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingToken is returned when no bearer token was presented.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken is returned for malformed, forged, or expired tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSecretRequired is returned by NewService for an empty secret.
	ErrSecretRequired = errors.New("token secret required")

	// ErrUserRepositoryRequired is returned by NewService without a repository.
	ErrUserRepositoryRequired = errors.New("user repository required")
)
