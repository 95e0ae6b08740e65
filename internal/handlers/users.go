// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshelf/devshelf/internal/authctx"
	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/services/auth"
)

// UserHandlers serves the profile endpoints.
type UserHandlers struct {
	repo *repository.Repository
	auth *auth.Service
}

func NewUsers(repo *repository.Repository, authService *auth.Service) *UserHandlers {
	return &UserHandlers{repo: repo, auth: authService}
}

// Profile returns the caller's own profile.
func (h *UserHandlers) Profile(c echo.Context) error {
	user := authctx.User(c.Request().Context())
	return c.JSON(http.StatusOK, user.Public())
}

type updateProfileRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Username       *string `json:"username"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
	Password       *string `json:"password"`
}

// UpdateProfile applies a partial update to the caller's profile. Absent
// fields keep their current value.
func (h *UserHandlers) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	user := authctx.User(ctx)

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}
	if req.Username != nil && *req.Username != user.Username {
		if *req.Username == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "username cannot be empty")
		}
		taken, err := h.repo.UsernameExists(ctx, *req.Username)
		if err != nil {
			return err
		}
		if taken {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		user.Username = *req.Username
	}
	if req.Password != nil {
		hash, err := h.auth.HashPassword(*req.Password, user.Email, user.Username, user.FirstName, user.LastName)
		if err != nil {
			return err
		}
		user.PasswordHash.String = hash
		user.PasswordHash.Valid = true
	}

	if err := h.repo.UpdateUser(ctx, user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// DeleteAccount removes the caller's account. Owned projects go with it.
func (h *UserHandlers) DeleteAccount(c echo.Context) error {
	user := authctx.User(c.Request().Context())
	if err := h.repo.DeleteUser(c.Request().Context(), user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "account deleted"})
}
