package authapi

import (
	"net/http"

	"github.com/taintedport/taintedport/pkg/authz"
)

func (h *handler) setup2FA(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authz.ErrUnauthenticated)
		return
	}

	setup, err := h.svc.SetupTOTP(r.Context(), p.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, response{
		Success:    true,
		Secret:     setup.Secret,
		OtpauthURI: setup.ProvisioningURI,
		QRCode:     setup.QRCode,
	})
}

type enable2FARequest struct {
	TOTPSecret string `json:"totp_secret"`
	TOTPCode   string `json:"totp_code"`
}

func (h *handler) enable2FA(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authz.ErrUnauthenticated)
		return
	}

	var req enable2FARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.EnableTOTP(r.Context(), p.ID, req.TOTPSecret, req.TOTPCode); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, response{
		Success: true,
		Message: "Two-factor authentication enabled successfully.",
	})
}

// disable2FARequest carries only the password re-proof. The target is
// always the authenticated principal.
type disable2FARequest struct {
	Password string `json:"password"`
}

func (h *handler) disable2FA(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authz.ErrUnauthenticated)
		return
	}

	var req disable2FARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.DisableTOTP(r.Context(), p.ID, req.Password); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, response{
		Success: true,
		Message: "Two-factor authentication disabled.",
	})
}
