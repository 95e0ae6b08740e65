// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package server wires configuration, services and routes into the HTTP
// server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/database"
	"github.com/devshelf/devshelf/internal/handlers"
	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/services/auth"
	"github.com/devshelf/devshelf/internal/services/email"
	"github.com/devshelf/devshelf/internal/services/oauth"
	"github.com/devshelf/devshelf/internal/services/otp"
	"github.com/devshelf/devshelf/internal/services/storage"
	"github.com/devshelf/devshelf/internal/services/token"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"frontend_url", cfg.Server.FrontendURL,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	repo := repository.New(db)

	// Services
	tokens := token.NewService(&cfg.Token, repo)
	authService := auth.NewService(repo)

	var sender otp.Sender
	if cfg.SMTP.Host != "" {
		sender, err = email.NewService(&cfg.SMTP)
		if err != nil {
			return fmt.Errorf("failed to create email service: %w", err)
		}
	}
	otpService := otp.NewService(repo, sender, tokens, &cfg.OTP)

	callbackURL := fmt.Sprintf("http://%s:%d/auth/google/callback", cfg.Server.Host, cfg.Server.Port)
	oauthService := oauth.NewService(&cfg.Google, callbackURL, repo, authService)

	storageService, err := storage.NewService(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage service: %w", err)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	setupMiddleware(e, cfg)
	setupRoutes(e, cfg, repo, tokens, authService, otpService, oauthService, storageService)

	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	repo *repository.Repository,
	tokens *token.Service,
	authService *auth.Service,
	otpService *otp.Service,
	oauthService *oauth.Service,
	storageService *storage.Service,
) {
	h := handlers.New(repo)
	authHandlers := handlers.NewAuth(authService, tokens)
	otpHandlers := handlers.NewOTP(otpService)
	oauthHandlers := handlers.NewOAuth(oauthService, tokens, &cfg.Google, cfg.Server.FrontendURL)
	userHandlers := handlers.NewUsers(repo, authService)
	projectHandlers := handlers.NewProjects(repo)
	uploadHandlers := handlers.NewUpload(storageService)

	e.GET("/health", h.Health)

	// OAuth flow lives outside /api because the provider redirects the
	// browser here directly.
	e.GET("/auth/google", oauthHandlers.Redirect)
	e.GET("/auth/google/callback", oauthHandlers.Callback)

	api := e.Group("/api")

	api.POST("/auth/register", authHandlers.Register)
	api.POST("/auth/login", authHandlers.Login)
	api.POST("/auth/refresh", authHandlers.Refresh)

	api.POST("/otp/generate", otpHandlers.Generate)
	api.POST("/otp/verify", otpHandlers.Verify)

	api.GET("/projects/feed", projectHandlers.Feed)

	// Everything below requires a valid session.
	authed := api.Group("", RequireAuth(tokens, repo))

	authed.POST("/auth/logout", authHandlers.Logout)

	authed.GET("/users/profile", userHandlers.Profile)
	authed.PUT("/users/profile", userHandlers.UpdateProfile)
	authed.DELETE("/users/profile", userHandlers.DeleteAccount)

	authed.POST("/projects", projectHandlers.Create)
	authed.GET("/projects", projectHandlers.List)
	authed.GET("/projects/trending", projectHandlers.Trending)
	authed.GET("/projects/search", projectHandlers.Search)
	authed.GET("/projects/me", projectHandlers.Mine)
	authed.GET("/projects/date-range", projectHandlers.DateRange)
	authed.GET("/projects/paginated", projectHandlers.Paginated)
	authed.GET("/projects/user/:userId", projectHandlers.ByUser)
	authed.GET("/projects/tags/:tag", projectHandlers.ByTag)
	authed.GET("/projects/:id", projectHandlers.Get)
	authed.PUT("/projects/:id", projectHandlers.Update)
	authed.DELETE("/projects/:id", projectHandlers.Delete)
	authed.PATCH("/projects/:id/like", projectHandlers.Like)
	authed.PATCH("/projects/:id/unlike", projectHandlers.Unlike)
	authed.POST("/projects/:id/comments", projectHandlers.AddComment)
	authed.POST("/projects/:id/feedback", projectHandlers.AddFeedback)
	authed.PATCH("/projects/:id/collaborators/add", projectHandlers.AddCollaborator)
	authed.PATCH("/projects/:id/collaborators/remove", projectHandlers.RemoveCollaborator)
	authed.PATCH("/projects/:id/status", projectHandlers.AssignStatus)

	authed.POST("/upload", uploadHandlers.Upload)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
		return err
	}

	slog.Info("server stopped")
	return nil
}
