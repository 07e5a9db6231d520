package authz

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated identity derived from a verified
// bearer token. IsAdmin is the token-embedded snapshot populated from
// the persisted record at issuance; privileged decisions re-check the
// store via RequireAdmin.
type Principal struct {
	ID      uuid.UUID
	Email   string
	IsAdmin bool
}

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var principalContextKey = &contextKey{name: "authz_principal"}

// SetPrincipal stores the authenticated principal in the context.
func SetPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	return p, ok
}
