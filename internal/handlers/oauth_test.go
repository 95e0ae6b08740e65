// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/handlers"
	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/services/auth"
	"github.com/devshelf/devshelf/internal/services/oauth"
	"github.com/devshelf/devshelf/internal/services/token"
	"github.com/devshelf/devshelf/internal/testutil"
)

const frontendURL = "http://localhost:3000"

func newOAuthHandlers(repo *repository.Repository, clientID string) *handlers.OAuthHandlers {
	cfg := &config.GoogleConfig{
		ClientID:     clientID,
		ClientSecret: "client-secret",
		StateSecret:  "0123456789abcdef0123456789abcdef",
	}
	svc := oauth.NewService(cfg, "http://localhost:8080/auth/google/callback", repo, auth.NewService(repo))
	tokens := token.NewService(testutil.TokenConfig(), repo)
	return handlers.NewOAuth(svc, tokens, cfg, frontendURL)
}

func TestOAuthRedirect(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := newOAuthHandlers(repo, "client-id")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Redirect(c))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	location, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Contains(t, location.Host, "google")
	state := location.Query().Get("state")
	assert.NotEmpty(t, state)

	// The state also travels in a signed cookie for the callback check.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "oauth_state", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEqual(t, state, cookies[0].Value)
}

func TestOAuthRedirect_NotConfigured(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := newOAuthHandlers(repo, "")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Redirect(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
}

func TestOAuthCallback_MissingState(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := newOAuthHandlers(repo, "client-id")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=xyz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Callback(c))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), frontendURL+"/login?error=")
}

func TestOAuthCallback_TamperedStateCookie(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := newOAuthHandlers(repo, "client-id")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=xyz", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "forged"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Callback(c))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "error=invalid+state")
}

func TestOAuthCallback_ProviderError(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	h := newOAuthHandlers(repo, "client-id")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Callback(c))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "error=access_denied")
}
