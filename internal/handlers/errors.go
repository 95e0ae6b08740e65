// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshelf/devshelf/internal/repository"
	"github.com/devshelf/devshelf/internal/services/auth"
	"github.com/devshelf/devshelf/internal/services/otp"
	"github.com/devshelf/devshelf/internal/services/token"
)

// ErrorHandler maps service errors to HTTP responses. Handlers may return
// service sentinels directly; anything unrecognized becomes a 500 with the
// detail kept out of the response body.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	var validationErr *auth.PasswordValidationError

	switch {
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	case errors.As(err, &validationErr):
		writeJSON(c, http.StatusBadRequest, map[string]any{
			"error":   "password does not meet requirements",
			"details": validationErr.Messages(),
		})
		return
	case errors.Is(err, auth.ErrInvalidEmail):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrUserExists):
		code, message = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		code, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, token.ErrTokenExpired), errors.Is(err, token.ErrTokenInvalid):
		code, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, otp.ErrInvalidOTP):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, otp.ErrUserNotFound):
		code, message = http.StatusNotFound, err.Error()
	case errors.Is(err, otp.ErrResendTooSoon):
		code, message = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, otp.ErrSenderUnavailable):
		code, message = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		code, message = http.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrDuplicate):
		code, message = http.StatusConflict, err.Error()
	default:
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	writeJSON(c, code, map[string]any{"error": message})
}

func writeJSON(c echo.Context, code int, body map[string]any) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
