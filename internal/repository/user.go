// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/devshelf/devshelf/internal/models"
)

// CreateUser inserts a new user and fills in its ID and timestamps.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (created_at, updated_at, first_name, last_name, username, email,
		                    google_id, password_hash, profile_picture, bio, is_admin, is_verified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.CreatedAt, user.UpdatedAt, user.FirstName, user.LastName, user.Username,
		strings.ToLower(user.Email), user.GoogleID, user.PasswordHash,
		user.ProfilePicture, user.Bio, user.IsAdmin, user.IsVerified)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	user.ID, err = res.LastInsertId()
	return err
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, strings.ToLower(email)); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// UsernameExists checks whether a username is already taken.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE username = ?`, username); err != nil {
		return false, err
	}
	return count > 0, nil
}

// EmailExists checks whether an email is already registered.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE email = ?`, strings.ToLower(email)); err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateUser persists profile fields of an existing user.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET updated_at = ?, first_name = ?, last_name = ?, username = ?, email = ?,
		                  password_hash = ?, profile_picture = ?, bio = ?
		 WHERE id = ?`,
		user.UpdatedAt, user.FirstName, user.LastName, user.Username, strings.ToLower(user.Email),
		user.PasswordHash, user.ProfilePicture, user.Bio, user.ID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteUser deletes a user by ID.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken stores the user's current refresh token unconditionally.
// Used on login where any previous session is deliberately displaced.
func (r *Repository) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET refresh_token = ? WHERE id = ?`, token, userID)
	return err
}

// SwapRefreshToken replaces the stored refresh token only if the current
// value matches old. Returns false when the stored token has already moved
// on, which closes the race between two concurrent rotations and rejects
// replay of an already-rotated token.
func (r *Repository) SwapRefreshToken(ctx context.Context, userID int64, old, next string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = ? WHERE id = ? AND refresh_token = ?`,
		next, userID, old)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClearRefreshToken invalidates the user's stored refresh token.
func (r *Repository) ClearRefreshToken(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET refresh_token = NULL WHERE id = ?`, userID)
	return err
}

// SetOTP stores a one-time code with its expiry and issue time.
func (r *Repository) SetOTP(ctx context.Context, userID int64, code string, expiresAt, sentAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET otp_code = ?, otp_expires_at = ?, otp_sent_at = ? WHERE id = ?`,
		code, expiresAt, sentAt, userID)
	return err
}

// ConsumeOTP marks the user verified and clears the stored code, but only if
// the stored code still matches. Single-document conditional update so the
// code is single-use even under concurrent verification attempts.
func (r *Repository) ConsumeOTP(ctx context.Context, userID int64, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = 1, otp_code = NULL, otp_expires_at = NULL
		 WHERE id = ? AND otp_code = ?`,
		userID, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UpdateUserPassword updates a user's password hash.
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		sql.NullString{String: passwordHash, Valid: true}, time.Now().UTC(), id)
	return err
}
