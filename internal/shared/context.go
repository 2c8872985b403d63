package shared

import (
	"context"
	"time"
)

// Identity is the authenticated subject reconstructed per request from a
// validated access token. It lives only for the request that created it.
type Identity struct {
	SubjectID int64
	RoleID    *int64
	IsOwner   bool
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context, nil when the
// request is unauthenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
