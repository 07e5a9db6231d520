package authz

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taintedport/taintedport/pkg/authn"
	"github.com/taintedport/taintedport/pkg/jwt"
	"github.com/taintedport/taintedport/pkg/logger"
)

// PrincipalStore is the subset of the credential store the gate needs
// to re-check persisted privileges.
type PrincipalStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*authn.User, error)
}

// Gate makes the request-level authorization decisions: turning a
// bearer token into a principal, and deciding admin and ownership
// access. Privilege checks are a function of server-held state only;
// nothing here trusts flags or identifiers from request content.
type Gate struct {
	tokens *jwt.Service
	store  PrincipalStore
	logger *slog.Logger
}

// NewGate creates an authorization gate.
func NewGate(tokens *jwt.Service, store PrincipalStore, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gate{tokens: tokens, store: store, logger: log}
}

// Authenticate is middleware requiring a valid bearer token. On
// success the principal is injected into the request context; any
// extraction or verification failure yields a single generic 401 so
// the response never reveals which check rejected the token.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			reject(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}

		var claims authn.AccessClaims
		if err := g.tokens.Parse(tokenString, &claims); err != nil {
			reject(w, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		id, err := uuid.Parse(claims.UserID)
		if err != nil {
			reject(w, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		p := Principal{ID: id, Email: claims.Email, IsAdmin: claims.IsAdmin}
		next.ServeHTTP(w, r.WithContext(SetPrincipal(r.Context(), p)))
	})
}

// RequireAdmin is middleware allowing only administrators through. The
// decision is made against the persisted record, re-fetched from the
// store; the token's is_admin snapshot alone is never sufficient.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			reject(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}

		user, err := g.store.GetUserByID(r.Context(), p.ID)
		if err != nil || !user.IsAdmin {
			g.logger.Warn("admin access denied",
				logger.UserID(p.ID.String()),
				logger.Component("authz"),
			)
			reject(w, http.StatusForbidden, "Admin access required.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthorizeOwner decides whether the principal may act on a resource
// owned by ownerID: the owner always may, an administrator (per the
// persisted record) may, anyone else gets ErrForbidden.
func (g *Gate) AuthorizeOwner(ctx context.Context, p Principal, ownerID uuid.UUID) error {
	if p.ID == ownerID {
		return nil
	}

	user, err := g.store.GetUserByID(ctx, p.ID)
	if err == nil && user.IsAdmin {
		return nil
	}
	return ErrForbidden
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// reject writes the uniform {success:false, message} rejection body.
func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
