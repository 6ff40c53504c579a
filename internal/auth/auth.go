// Package auth implements the single-user password and bearer token scheme.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/claude/lightweight/internal/workout"
)

var (
	// ErrAlreadyConfigured is returned by Setup once a password exists.
	ErrAlreadyConfigured = errors.New("auth already configured")
	// ErrNotConfigured is returned by Login before Setup has run.
	ErrNotConfigured = errors.New("auth not configured")
	// ErrInvalidPassword is returned by Login on a wrong password.
	ErrInvalidPassword = errors.New("invalid password")
)

// Store persists the password hash and the current session token.
type Store interface {
	// AuthHash returns the stored password hash, or "" if none is set.
	AuthHash(ctx context.Context) (string, error)
	// InitAuth stores hash and token unless a password already exists, and
	// reports whether it did.
	InitAuth(ctx context.Context, hash, token string) (bool, error)
	SetAuthToken(ctx context.Context, token string) error
	// AuthToken returns the current token, or "" if none is set.
	AuthToken(ctx context.Context) (string, error)
}

// Service issues and checks bearer tokens. Logging in rotates the token, so
// only the most recent login stays valid.
type Service struct {
	store Store
	log   *slog.Logger
	cost  int
}

// New creates a Service.
func New(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, log: log, cost: bcrypt.DefaultCost}
}

// SetCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) SetCost(cost int) {
	s.cost = cost
}

// Configured reports whether a password has been set.
func (s *Service) Configured(ctx context.Context) (bool, error) {
	hash, err := s.store.AuthHash(ctx)
	if err != nil {
		return false, err
	}
	return hash != "", nil
}

// Setup sets the password on first use and returns a token.
func (s *Service) Setup(ctx context.Context, password string) (string, error) {
	hash, err := s.hash(password)
	if err != nil {
		return "", err
	}
	token := newToken()
	ok, err := s.store.InitAuth(ctx, hash, token)
	if err != nil {
		return "", fmt.Errorf("storing password: %w", err)
	}
	if !ok {
		return "", ErrAlreadyConfigured
	}
	s.log.Info("auth configured")
	return token, nil
}

// Login checks the password and returns a fresh token.
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	hash, err := s.store.AuthHash(ctx)
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", ErrNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.log.Warn("login failed")
		return "", ErrInvalidPassword
	}
	token := newToken()
	if err := s.store.SetAuthToken(ctx, token); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token, nil
}

// Verify reports whether token is the current token.
func (s *Service) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	current, err := s.store.AuthToken(ctx)
	if err != nil {
		return false, err
	}
	if current == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(current), []byte(token)) == 1, nil
}

func (s *Service) hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", workout.Validationf("password is required")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", workout.Validationf("password is too long")
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
