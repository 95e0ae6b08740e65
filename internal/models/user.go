// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package models

import (
	"database/sql"
	"time"
)

// User is a registered account. A user is authenticatable by password hash,
// by Google identity, or both, never neither (enforced by a CHECK constraint
// and by the auth service).
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID             int64          `db:"id" json:"id"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
	FirstName      string         `db:"first_name" json:"first_name"`
	LastName       string         `db:"last_name" json:"last_name"`
	Username       string         `db:"username" json:"username"`
	Email          string         `db:"email" json:"email"`
	GoogleID       sql.NullString `db:"google_id" json:"-"`
	PasswordHash   sql.NullString `db:"password_hash" json:"-"`
	ProfilePicture string         `db:"profile_picture" json:"profile_picture"`
	Bio            string         `db:"bio" json:"bio"`
	IsAdmin        bool           `db:"is_admin" json:"is_admin"`
	IsVerified     bool           `db:"is_verified" json:"is_verified"`
	OTPCode        sql.NullString `db:"otp_code" json:"-"`
	OTPExpiresAt   sql.NullTime   `db:"otp_expires_at" json:"-"`
	OTPSentAt      sql.NullTime   `db:"otp_sent_at" json:"-"`
	RefreshToken   sql.NullString `db:"refresh_token" json:"-"`
}

// PublicUser is the shape returned to clients. Credential material never
// leaves the server.
type PublicUser struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profile_picture"`
	Bio            string    `json:"bio"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
}

// Public strips credential and OTP state from a user record.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		IsVerified:     u.IsVerified,
		CreatedAt:      u.CreatedAt,
	}
}
