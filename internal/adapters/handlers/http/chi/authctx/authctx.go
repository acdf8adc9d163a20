// Package authctx carries the authenticated caller through a request context.
package authctx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// WithUserID returns a context carrying the authenticated user
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user
func UserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return userID, ok
}
