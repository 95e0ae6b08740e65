// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshelf/devshelf/internal/services/otp"
)

// OTPHandlers serves email verification codes.
type OTPHandlers struct {
	otp *otp.Service
}

func NewOTP(otpService *otp.Service) *OTPHandlers {
	return &OTPHandlers{otp: otpService}
}

type otpGenerateRequest struct {
	Email string `json:"email"`
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Generate issues a one-time code and mails it to the account's address.
func (h *OTPHandlers) Generate(c echo.Context) error {
	var req otpGenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := h.otp.IssueAndSend(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "verification code sent"})
}

// Verify checks a submitted code, marks the account verified and opens a
// session.
func (h *OTPHandlers) Verify(c echo.Context) error {
	var req otpVerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.OTP == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and otp are required")
	}

	user, pair, err := h.otp.Verify(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
