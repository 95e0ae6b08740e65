// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshelf/devshelf/internal/repository"
)

// Handlers holds shared dependencies for miscellaneous endpoints.
type Handlers struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// Health reports service liveness.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.repo.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
