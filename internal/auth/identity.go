package auth

import (
	"context"
	"strings"

	"github.com/sipstreak/backend/internal/apperr"
)

// Identity is the authenticated caller of a service operation.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Validate fails with an Unauthorized error when no user is attached.
func (i Identity) Validate(op string) error {
	if strings.TrimSpace(i.UserID) == "" {
		return apperr.New(apperr.KindUnauthorized, op, "authentication required")
	}
	return nil
}

type identityKey struct{}

// WithIdentity stores the authenticated identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity installed by the authentication middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}
