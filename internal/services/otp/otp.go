// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package otp implements one-time codes for email verification.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/models"
	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/services/token"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidOTP covers missing user, wrong code and expired code
	// uniformly so responses cannot leak which case occurred.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrResendTooSoon is returned when a code was requested inside the
	// minimum resend interval.
	ErrResendTooSoon = errors.New("otp requested too recently")
	// ErrSenderUnavailable is returned when no SMTP server is configured.
	ErrSenderUnavailable = errors.New("email sending not configured")
)

// sendTimeout bounds the outbound email call so a slow SMTP server cannot
// hang a request indefinitely.
const sendTimeout = 10 * time.Second

// Sender dispatches a plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Service struct {
	repo   *repository.Repository
	sender Sender
	tokens *token.Service
	expiry time.Duration
	resend time.Duration
}

func NewService(repo *repository.Repository, sender Sender, tokens *token.Service, cfg *config.OTPConfig) *Service {
	return &Service{
		repo:   repo,
		sender: sender,
		tokens: tokens,
		expiry: time.Duration(cfg.ExpiryMinutes) * time.Minute,
		resend: time.Duration(cfg.ResendSeconds) * time.Second,
	}
}

// Generate returns a 6-digit numeric code from a cryptographic source.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// IssueAndSend generates a code, stores it on the user record and mails it.
// Requests inside the resend interval fail with ErrResendTooSoon.
func (s *Service) IssueAndSend(ctx context.Context, email string) error {
	if s.sender == nil {
		return ErrSenderUnavailable
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("getting user: %w", err)
	}

	now := time.Now().UTC()
	if user.OTPSentAt.Valid && now.Sub(user.OTPSentAt.Time) < s.resend {
		return ErrResendTooSoon
	}

	code, err := Generate()
	if err != nil {
		return err
	}
	if err := s.repo.SetOTP(ctx, user.ID, code, now.Add(s.expiry), now); err != nil {
		return fmt.Errorf("storing otp: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.expiry.Minutes()))
	if err := s.sender.Send(sendCtx, user.Email, "Your devshelf verification code", body); err != nil {
		return fmt.Errorf("sending otp email: %w", err)
	}

	slog.Info("otp_sent", "user_id", user.ID)
	return nil
}

// Verify checks a submitted code. On success the user is marked verified,
// the code is cleared (single use) and a fresh token pair is issued. Every
// failure path returns ErrInvalidOTP.
func (s *Service) Verify(ctx context.Context, email, submitted string) (*models.User, token.Pair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, token.Pair{}, ErrInvalidOTP
		}
		return nil, token.Pair{}, fmt.Errorf("getting user: %w", err)
	}

	if !user.OTPCode.Valid ||
		subtle.ConstantTimeCompare([]byte(user.OTPCode.String), []byte(submitted)) != 1 {
		slog.Warn("otp_failed", "user_id", user.ID)
		return nil, token.Pair{}, ErrInvalidOTP
	}
	if !user.OTPExpiresAt.Valid || time.Now().After(user.OTPExpiresAt.Time) {
		slog.Warn("otp_failed", "user_id", user.ID, "reason", "expired")
		return nil, token.Pair{}, ErrInvalidOTP
	}

	consumed, err := s.repo.ConsumeOTP(ctx, user.ID, submitted)
	if err != nil {
		return nil, token.Pair{}, fmt.Errorf("consuming otp: %w", err)
	}
	if !consumed {
		// Lost a race with a concurrent verification of the same code
		return nil, token.Pair{}, ErrInvalidOTP
	}
	user.IsVerified = true
	user.OTPCode.Valid = false

	pair, err := s.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, token.Pair{}, err
	}

	slog.Info("otp_verified", "user_id", user.ID)
	return user, pair, nil
}
