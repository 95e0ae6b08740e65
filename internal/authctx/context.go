// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

// Package authctx carries the authenticated user through request contexts.
package authctx

import (
	"context"

	"github.com/devshelf/devshelf/internal/models"
)

type userKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// User returns the authenticated user from the context, or nil if not
// authenticated.
func User(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userKey{}).(*models.User); ok {
		return user
	}
	return nil
}
