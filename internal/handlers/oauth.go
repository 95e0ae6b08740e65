// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"

	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/services/oauth"
	"github.com/devshelf/devshelf/internal/services/token"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// OAuthHandlers serves the Google OAuth browser flow. The CSRF state lives in
// a signed cookie for the duration of the round trip to the provider; tokens
// are handed to the frontend via redirect query parameters.
type OAuthHandlers struct {
	oauth       *oauth.Service
	tokens      *token.Service
	state       *securecookie.SecureCookie
	frontendURL string
}

func NewOAuth(oauthService *oauth.Service, tokens *token.Service, cfg *config.GoogleConfig, frontendURL string) *OAuthHandlers {
	return &OAuthHandlers{
		oauth:       oauthService,
		tokens:      tokens,
		state:       securecookie.New([]byte(cfg.StateSecret), nil),
		frontendURL: frontendURL,
	}
}

// Redirect starts the flow by sending the browser to the provider's consent
// screen with a fresh state value.
func (h *OAuthHandlers) Redirect(c echo.Context) error {
	if !h.oauth.Enabled() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "google login is not configured")
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	state := hex.EncodeToString(buf)

	encoded, err := h.state.Encode(stateCookieName, state)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth/google",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// Callback finishes the flow: it checks the state, exchanges the code,
// resolves the Google identity to a local account and redirects to the
// frontend with a fresh token pair.
func (h *OAuthHandlers) Callback(c echo.Context) error {
	clearState := &http.Cookie{Name: stateCookieName, Path: "/auth/google", MaxAge: -1, HttpOnly: true}
	c.SetCookie(clearState)

	if errParam := c.QueryParam("error"); errParam != "" {
		return h.redirectWithError(c, errParam)
	}

	cookie, err := c.Cookie(stateCookieName)
	if err != nil {
		return h.redirectWithError(c, "missing state")
	}
	var state string
	if err := h.state.Decode(stateCookieName, cookie.Value, &state); err != nil {
		return h.redirectWithError(c, "invalid state")
	}
	if state == "" || c.QueryParam("state") != state {
		return h.redirectWithError(c, "state mismatch")
	}

	code := c.QueryParam("code")
	if code == "" {
		return h.redirectWithError(c, "missing code")
	}

	ctx := c.Request().Context()
	profile, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Error("oauth exchange failed", "error", err)
		return h.redirectWithError(c, "authentication failed")
	}
	user, err := h.oauth.LinkOrCreate(ctx, profile)
	if err != nil {
		slog.Error("oauth link failed", "error", err)
		return h.redirectWithError(c, "authentication failed")
	}
	pair, err := h.tokens.IssuePair(ctx, user.ID)
	if err != nil {
		slog.Error("oauth session issue failed", "error", err)
		return h.redirectWithError(c, "authentication failed")
	}

	q := url.Values{}
	q.Set("access_token", pair.AccessToken)
	q.Set("refresh_token", pair.RefreshToken)
	return c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback?"+q.Encode())
}

func (h *OAuthHandlers) redirectWithError(c echo.Context, reason string) error {
	q := url.Values{}
	q.Set("error", reason)
	return c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/login?"+q.Encode())
}
