package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/storage"
)

const DefaultTokenExpiry = 43200 * time.Minute

// Service registers users and authenticates them.
type Service struct {
	users  storage.UserRepository
	secret []byte
	expiry time.Duration
	cost   int
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithTokenExpiry sets the token lifetime.
// Default is DefaultTokenExpiry.
func WithTokenExpiry(d time.Duration) Option {
	return func(s *Service) error {
		if d <= 0 {
			return errors.New("token expiry must be positive")
		}
		s.expiry = d
		return nil
	}
}

// WithBcryptCost sets the bcrypt work factor.
// Default is bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) error {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return fmt.Errorf("bcrypt cost %d out of range", cost)
		}
		s.cost = cost
		return nil
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		s.now = now
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates an auth service signing tokens with secret.
func NewService(users storage.UserRepository, secret string, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, ErrUserRepositoryRequired
	}
	if secret == "" {
		return nil, ErrSecretRequired
	}

	s := &Service{
		users:  users,
		secret: []byte(secret),
		expiry: DefaultTokenExpiry,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "auth")
	return s, nil
}

// Signup creates a user and returns it with a fresh token.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*core.User, string, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if err := core.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := core.ValidateName(name); err != nil {
		return nil, "", err
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.CreateUser(ctx, &core.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, "", ErrEmailTaken
	}
	if err != nil {
		return nil, "", err
	}

	token, err := s.IssueToken(user.Id)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user signed up", "user", user.Id)
	return user, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*core.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("stored password hash is unusable", "user", user.Id, "err", err)
		return nil, "", ErrInvalidCredentials
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.Id)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves an Authorization header value to a user ID.
func (s *Service) Authenticate(header string) (core.ID, error) {
	token, err := BearerToken(header)
	if err != nil {
		return 0, err
	}
	return s.ParseToken(token)
}
