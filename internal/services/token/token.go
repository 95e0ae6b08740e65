// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package token issues and verifies the access/refresh JWT pair.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/devshelf/devshelf/internal/config"
)

var (
	// ErrTokenExpired marks a well-formed, correctly signed token past its
	// expiry. The session middleware treats this case differently from
	// ErrTokenInvalid.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid marks a malformed token, a bad signature, or a
	// refresh token that no longer matches the stored one.
	ErrTokenInvalid = errors.New("token invalid")
)

// Store persists the currently valid refresh token per user. Refresh tokens
// are validated against the store in addition to their signature, so a
// rotated-out token cannot be replayed.
type Store interface {
	SetRefreshToken(ctx context.Context, userID int64, token string) error
	SwapRefreshToken(ctx context.Context, userID int64, old, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID int64) error
}

// Claims binds a user ID to the registered expiry claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// Pair is an access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service signs and verifies tokens. Access and refresh tokens use distinct
// secrets; expiry is enforced by the signature, not by a side store.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	store         Store
}

// NewService creates a token service from config.
func NewService(cfg *config.TokenConfig, store Store) *Service {
	return &Service{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		refreshTTL:    time.Duration(cfg.RefreshTTLHours) * time.Hour,
		store:         store,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccessToken signs a short-lived access token for the user.
func (s *Service) IssueAccessToken(userID int64) (string, error) {
	return sign(userID, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the user. The
// caller is responsible for storing it as the user's current session.
func (s *Service) IssueRefreshToken(userID int64) (string, error) {
	return sign(userID, s.refreshSecret, s.refreshTTL)
}

// sign includes a random jti so every token is unique even when two are
// issued within the same second. Rotation relies on the new refresh token
// differing from the old one; identical strings would make the conditional
// swap a no-op that leaves the old token valid.
func sign(userID int64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})
	return tok.SignedString(secret)
}

// VerifyAccessToken returns the user ID carried by a valid access token.
func (s *Service) VerifyAccessToken(token string) (int64, error) {
	return verify(token, s.accessSecret)
}

// VerifyRefreshToken checks only the signature and expiry of a refresh
// token. It does not consult the store; use Rotate for that.
func (s *Service) VerifyRefreshToken(token string) (int64, error) {
	return verify(token, s.refreshSecret)
}

func verify(token string, secret []byte) (int64, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	if !tok.Valid {
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}

// IssuePair issues a new token pair and stores the refresh token as the
// user's single active session, displacing any previous one.
func (s *Service) IssuePair(ctx context.Context, userID int64) (Pair, error) {
	access, err := s.IssueAccessToken(userID)
	if err != nil {
		return Pair{}, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := s.IssueRefreshToken(userID)
	if err != nil {
		return Pair{}, fmt.Errorf("signing refresh token: %w", err)
	}
	if err := s.store.SetRefreshToken(ctx, userID, refresh); err != nil {
		return Pair{}, fmt.Errorf("storing refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate verifies an old refresh token, atomically replaces the stored one
// and returns a fresh pair. A token that was already rotated out, or that
// never matched the stored session, fails with ErrTokenInvalid.
func (s *Service) Rotate(ctx context.Context, oldRefresh string) (Pair, error) {
	userID, err := s.VerifyRefreshToken(oldRefresh)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.IssueRefreshToken(userID)
	if err != nil {
		return Pair{}, fmt.Errorf("signing refresh token: %w", err)
	}
	swapped, err := s.store.SwapRefreshToken(ctx, userID, oldRefresh, refresh)
	if err != nil {
		return Pair{}, fmt.Errorf("rotating refresh token: %w", err)
	}
	if !swapped {
		return Pair{}, ErrTokenInvalid
	}
	access, err := s.IssueAccessToken(userID)
	if err != nil {
		return Pair{}, fmt.Errorf("signing access token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Revoke invalidates the user's stored refresh token.
func (s *Service) Revoke(ctx context.Context, userID int64) error {
	return s.store.ClearRefreshToken(ctx, userID)
}
