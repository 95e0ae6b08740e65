// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/devshelf/devshelf/internal/authctx"
	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/database"
	"github.com/devshelf/devshelf/internal/models"
	"github.com/devshelf/devshelf/internal/repository"
)

// TestPassword is the plain-text password behind every fixture user.
const TestPassword = "correct-horse-battery"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// TokenConfig returns signing material for token tests.
func TokenConfig() *config.TokenConfig {
	return &config.TokenConfig{
		AccessSecret:     "test-access-secret",
		RefreshSecret:    "test-refresh-secret",
		AccessTTLMinutes: 15,
		RefreshTTLHours:  168,
	}
}

// NewTestUser creates a password-authenticatable test user.
func NewTestUser(t *testing.T, repo *repository.Repository, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		FirstName:    "Test",
		LastName:     "User",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: sql.NullString{String: string(hash), Valid: true},
	}
	err = repo.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return user
}

// NewTestProject creates a public test project owned by the given user.
func NewTestProject(t *testing.T, repo *repository.Repository, ownerID int64, title string) *models.Project {
	t.Helper()
	project := &models.Project{
		UserID:       ownerID,
		Title:        title,
		Description:  "A test project",
		IsPublic:     true,
		Tags:         []string{"go", "testing"},
		Technologies: []string{"sqlite"},
	}
	err := repo.CreateProject(context.Background(), project)
	require.NoError(t, err)
	return project
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewAuthedContext creates an Echo context carrying an authenticated user,
// bypassing the session middleware.
func NewAuthedContext(e *echo.Echo, method, path string, body io.Reader, user *models.User) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := NewEchoContext(e, method, path, body)
	ctx := authctx.WithUser(c.Request().Context(), user)
	c.SetRequest(c.Request().WithContext(ctx))
	return c, rec
}
