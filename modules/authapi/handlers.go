package authapi

import (
	"net/http"

	"github.com/taintedport/taintedport/pkg/authz"
	"github.com/taintedport/taintedport/pkg/logger"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusCreated, response{
		Success: true,
		Message: "User registered successfully.",
		Token:   token,
		User:    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password, req.TOTPCode)
	if err != nil {
		respondError(w, err)
		return
	}

	if result.SecondFactorRequired {
		respond(w, http.StatusOK, response{
			Success:     false,
			Requires2FA: true,
			Message:     "Two-factor authentication code required.",
		})
		return
	}

	respond(w, http.StatusOK, response{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authz.ErrUnauthenticated)
		return
	}

	user, err := h.svc.Profile(r.Context(), p.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, response{Success: true, User: user})
}

// updateProfileRequest deliberately has no user_id field: the target of
// a profile update is always the token's principal.
type updateProfileRequest struct {
	Name string `json:"name"`
}

func (h *handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authz.ErrUnauthenticated)
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), p.ID, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, response{
		Success: true,
		Message: "Profile updated successfully.",
		User:    user,
	})
}

type changeEmailRequest struct {
	Password string `json:"password"`
	NewEmail string `json:"new_email"`
}

func (h *handler) changeEmail(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authz.ErrUnauthenticated)
		return
	}

	var req changeEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.svc.ChangeEmail(r.Context(), p.ID, req.Password, req.NewEmail)
	if err != nil {
		respondError(w, err)
		return
	}

	// The old token still carries the old email claim until it
	// expires; the fresh token is the one clients should keep.
	respond(w, http.StatusOK, response{
		Success: true,
		Message: "Email updated successfully.",
		Token:   token,
		User:    user,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := authz.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, authz.ErrUnauthenticated)
		return
	}

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), p.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	h.logger.Info("password change completed",
		logger.UserID(p.ID.String()),
		logger.Component("authapi"),
	)
	respond(w, http.StatusOK, response{
		Success: true,
		Message: "Password changed successfully.",
	})
}
