package authz

import "errors"

var (
	// ErrUnauthenticated indicates a missing or rejected bearer token.
	ErrUnauthenticated = errors.New("authz: unauthenticated")
	// ErrForbidden indicates an authenticated principal without access
	// to the target resource.
	ErrForbidden = errors.New("authz: forbidden")
)
