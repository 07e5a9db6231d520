package authapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taintedport/taintedport/pkg/authn"
	"github.com/taintedport/taintedport/pkg/authz"
)

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authz.ErrUnauthenticated)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, authn.ErrUserNotFound)
		return
	}

	// Denied lookups render as not-found so the endpoint cannot be
	// used to probe which user IDs exist.
	if err := h.gate.AuthorizeOwner(r.Context(), p, id); err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			respondError(w, authn.ErrUserNotFound)
			return
		}
		respondError(w, err)
		return
	}

	user, err := h.svc.Profile(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, response{Success: true, User: user})
}

func (h *handler) adminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, authn.ErrUserNotFound)
		return
	}

	user, err := h.svc.Profile(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, response{Success: true, User: user})
}
