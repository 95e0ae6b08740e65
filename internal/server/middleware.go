// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/devshelf/devshelf/internal/authctx"
	"github.com/devshelf/devshelf/internal/config"
	"github.com/devshelf/devshelf/internal/handlers"
	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/services/token"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.Server.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, handlers.HeaderRefreshToken},
		ExposeHeaders:    []string{handlers.HeaderAccessToken, handlers.HeaderRefreshToken},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
}

// RequireAuth gates a route group on a valid bearer access token. An access
// token that is expired, specifically, is refreshed in place when the
// request carries the user's currently stored refresh token; the fresh pair
// is returned on the response headers. Any other failure rejects with 401
// and no context mutation.
func RequireAuth(tokens *token.Service, repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			access, ok := bearerToken(c.Request())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			userID, err := tokens.VerifyAccessToken(access)
			switch {
			case err == nil:
				// fall through to user lookup
			case errors.Is(err, token.ErrTokenExpired):
				userID, err = refreshSession(c, tokens)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			user, err := repo.GetUserByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return fmt.Errorf("loading user: %w", err)
			}

			ctx := authctx.WithUser(c.Request().Context(), user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// refreshSession rotates the refresh token presented on the request and
// re-attaches the fresh pair to the response transport.
func refreshSession(c echo.Context, tokens *token.Service) (int64, error) {
	refresh := c.Request().Header.Get(handlers.HeaderRefreshToken)
	if refresh == "" {
		return 0, token.ErrTokenInvalid
	}
	userID, err := tokens.VerifyRefreshToken(refresh)
	if err != nil {
		return 0, err
	}
	pair, err := tokens.Rotate(c.Request().Context(), refresh)
	if err != nil {
		return 0, err
	}
	c.Response().Header().Set(handlers.HeaderAccessToken, pair.AccessToken)
	c.Response().Header().Set(handlers.HeaderRefreshToken, pair.RefreshToken)
	slog.Debug("session_refreshed", "user_id", userID)
	return userID, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	tok, found := strings.CutPrefix(header, "Bearer ")
	if !found || tok == "" {
		return "", false
	}
	return tok, true
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}
