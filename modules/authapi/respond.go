package authapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taintedport/taintedport/pkg/authn"
	"github.com/taintedport/taintedport/pkg/authz"
)

// response is the uniform JSON envelope every endpoint renders.
type response struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	Token       string      `json:"token,omitempty"`
	User        *authn.User `json:"user,omitempty"`
	Requires2FA bool        `json:"requires_2fa,omitempty"`

	// 2FA setup payload
	Secret     string `json:"secret,omitempty"`
	OtpauthURI string `json:"otpauth_uri,omitempty"`
	QRCode     string `json:"qr_code,omitempty"`
}

func respond(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps a service error to the HTTP taxonomy and a
// {success:false, message} body. Unknown errors become a generic 500;
// internals never reach the client.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error."

	switch {
	case errors.Is(err, authn.ErrInvalidEmail),
		errors.Is(err, authn.ErrWeakPassword),
		errors.Is(err, authn.ErrInvalidName),
		errors.Is(err, authn.ErrInvalidTOTPSecret):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, authn.ErrInvalidCredentials):
		// Deliberately generic: the response must not reveal whether
		// the email exists or which credential failed.
		status = http.StatusUnauthorized
		message = "Invalid email or password."
	case errors.Is(err, authn.ErrIncorrectPassword),
		errors.Is(err, authn.ErrSecondFactorInvalid):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, authz.ErrUnauthenticated):
		status = http.StatusUnauthorized
		message = "Access denied. No token provided."
	case errors.Is(err, authz.ErrForbidden):
		status = http.StatusForbidden
		message = "Access denied."
	case errors.Is(err, authn.ErrUserNotFound):
		status = http.StatusNotFound
		message = "User not found."
	case errors.Is(err, authn.ErrEmailAlreadyExists),
		errors.Is(err, authn.ErrTOTPAlreadyEnabled):
		status = http.StatusConflict
		message = err.Error()
	}

	respond(w, status, response{Success: false, Message: message})
}

// decodeJSON parses a request body, rejecting unparsable input early.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond(w, http.StatusBadRequest, response{
			Success: false,
			Message: "Invalid request body.",
		})
		return false
	}
	return true
}
