// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package oauth bridges verified Google identities to local user records.
package oauth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/models"
	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/services/auth"
)

// exchangeTimeout bounds the code exchange and userinfo calls so a slow
// provider cannot hang a request worker.
const exchangeTimeout = 10 * time.Second

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Profile is the verified identity assertion delivered by the provider.
type Profile struct {
	ID         string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

type Service struct {
	oauth       *oauth2.Config
	repo        *repository.Repository
	users       *auth.Service
	userinfoURL string
}

// NewService builds the Google OAuth bridge. redirectURL is this server's
// callback endpoint.
func NewService(cfg *config.GoogleConfig, redirectURL string, repo *repository.Repository, users *auth.Service) *Service {
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		repo:        repo,
		users:       users,
		userinfoURL: googleUserinfoURL,
	}
}

// Enabled reports whether the bridge is configured.
func (s *Service) Enabled() bool {
	return s.oauth.ClientID != ""
}

// AuthCodeURL returns the provider redirect URL carrying the given state.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the provider's identity
// assertion.
func (s *Service) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("userinfo response missing email")
	}
	return &profile, nil
}

// LinkOrCreate resolves a verified external identity to a local user. A
// user with a matching email logs in unchanged; otherwise a new record is
// created with a generated username and verified set, since the provider
// already verified the address. Idempotent on email.
func (s *Service) LinkOrCreate(ctx context.Context, profile *Profile) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	username, err := s.users.GenerateUsername(ctx, profile.GivenName+profile.FamilyName)
	if err != nil {
		return nil, err
	}

	picture := profile.Picture
	if picture == "" {
		picture = "default-profile.png"
	}
	user = &models.User{
		FirstName:      profile.GivenName,
		LastName:       profile.FamilyName,
		Username:       username,
		Email:          profile.Email,
		GoogleID:       sql.NullString{String: profile.ID, Valid: true},
		ProfilePicture: picture,
		IsVerified:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}
