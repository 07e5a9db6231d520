// Package authapi exposes the authentication and account endpoints
// over HTTP. All request decoding is strict about which fields exist:
// privileged attributes such as is_admin or a target user_id simply
// have no place in any request type, so they cannot be smuggled in.
package authapi

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/taintedport/taintedport/pkg/authn"
	"github.com/taintedport/taintedport/pkg/authz"
)

type handler struct {
	svc    *authn.Service
	gate   *authz.Gate
	logger *slog.Logger
}

// Router mounts the authentication API.
//
//	r := chi.NewRouter()
//	r.Mount("/api", authapi.Router(svc, gate, log))
func Router(svc *authn.Service, gate *authz.Gate, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handler{svc: svc, gate: gate, logger: log}

	r := chi.NewRouter()

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(gate.Authenticate)

		pr.Get("/auth/me", h.me)
		pr.Put("/auth/profile", h.updateProfile)
		pr.Put("/auth/email", h.changeEmail)
		pr.Put("/auth/password", h.changePassword)

		pr.Post("/auth/2fa/setup", h.setup2FA)
		pr.Post("/auth/2fa/enable", h.enable2FA)
		pr.Post("/auth/2fa/disable", h.disable2FA)

		pr.Get("/users/{id}", h.getUser)

		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(gate.RequireAdmin)
			ar.Get("/users/{id}", h.adminGetUser)
		})
	})

	return r
}
