// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package auth implements registration and password login.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/devshelf/devshelf/internal/models"
	"github.com/devshelf/devshelf/internal/repository"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email format")
	// ErrUsernameExhausted is returned when username generation cannot find
	// a free name within its retry budget.
	ErrUsernameExhausted = errors.New("username generation exhausted")
)

// usernameRetries bounds the generate-and-check loop.
const usernameRetries = 10

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

type Service struct {
	repo              *repository.Repository
	passwordValidator *PasswordValidator
}

func NewService(repo *repository.Repository) *Service {
	return &Service{
		repo:              repo,
		passwordValidator: DefaultPasswordValidator(),
	}
}

// RegisterParams holds the parameters for user registration.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Username  string // generated from the name when empty
}

// Register creates a new password-authenticatable user account.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmail
	}
	if result := s.passwordValidator.Validate(params.Password, params.Email); !result.Valid {
		return nil, &PasswordValidationError{Errors: result.Errors}
	}

	exists, err := s.repo.EmailExists(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("checking existing email: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	username := params.Username
	if username == "" {
		username, err = s.GenerateUsername(ctx, params.FirstName+params.LastName)
		if err != nil {
			return nil, err
		}
	} else {
		taken, err := s.repo.UsernameExists(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("checking existing username: %w", err)
		}
		if taken {
			return nil, ErrUserExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Username:     username,
		Email:        strings.ToLower(params.Email),
		PasswordHash: nullString(string(hash)),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		// The existence prechecks are racy; a concurrent registration can
		// still hit the unique constraint on email or username.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login authenticates a user by email and password. All failure paths
// return ErrInvalidCredentials so responses cannot be used to enumerate
// accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform a bcrypt comparison
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", email, "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	if !user.PasswordHash.Valid {
		// OAuth-only account without a password
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		slog.Warn("login_failed", "email", email, "reason", "no_password")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password)); err != nil {
		slog.Warn("login_failed", "email", email, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	slog.Info("login_success", "user_id", user.ID, "email", email)
	return user, nil
}

// HashPassword validates and hashes a new password for a profile update.
func (s *Service) HashPassword(password string, userAttributes ...string) (string, error) {
	if result := s.passwordValidator.Validate(password, userAttributes...); !result.Valid {
		return "", &PasswordValidationError{Errors: result.Errors}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// GenerateUsername derives a username from a display name plus a random
// suffix, retrying against the store until uniqueness holds. Fails with
// ErrUsernameExhausted after a fixed number of attempts.
func (s *Service) GenerateUsername(ctx context.Context, name string) (string, error) {
	base := sanitizeUsername(name)
	if base == "" {
		base = "user"
	}

	for range usernameRetries {
		suffix := make([]byte, 3)
		if _, err := rand.Read(suffix); err != nil {
			return "", fmt.Errorf("generating username suffix: %w", err)
		}
		candidate := base + hex.EncodeToString(suffix)

		taken, err := s.repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrUsernameExhausted
}

// sanitizeUsername keeps lowercase letters and digits only.
func sanitizeUsername(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
