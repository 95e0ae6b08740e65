// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshelf/devshelf/internal/authctx"
	"github.com/devshelf/devshelf/internal/services/auth"
	"github.com/devshelf/devshelf/internal/services/token"
)

// Token transport headers, shared with the session middleware. The refresh
// token rides on /auth/refresh requests; both headers carry the fresh pair
// back on responses where the session was rotated.
const (
	HeaderRefreshToken = "X-Refresh-Token"
	HeaderAccessToken  = "X-Access-Token"
)

// AuthHandlers serves registration, login and session lifecycle endpoints.
type AuthHandlers struct {
	auth   *auth.Service
	tokens *token.Service
}

func NewAuth(authService *auth.Service, tokens *token.Service) *AuthHandlers {
	return &AuthHandlers{auth: authService, tokens: tokens}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User         any    `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account and opens a session for it.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := h.auth.Register(c.Request().Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
	})
	if err != nil {
		return err
	}

	pair, err := h.tokens.IssuePair(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sessionResponse{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Login authenticates by email and password.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	pair, err := h.tokens.IssuePair(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the refresh token and returns a fresh pair. The old token
// may arrive in the X-Refresh-Token header or the request body; it is
// invalidated either way.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	refresh := c.Request().Header.Get(HeaderRefreshToken)
	if refresh == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			refresh = req.RefreshToken
		}
	}
	if refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token is required")
	}

	pair, err := h.tokens.Rotate(c.Request().Context(), refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Logout revokes the caller's stored refresh token.
func (h *AuthHandlers) Logout(c echo.Context) error {
	user := authctx.User(c.Request().Context())
	if err := h.tokens.Revoke(c.Request().Context(), user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}
