// Package authz is the request-level authorization gate. It turns an
// inbound bearer token into an authenticated principal and decides
// admin and ownership access for that principal.
//
// Token verification has exactly two outcomes: a principal, or a 401
// with a generic message. Administrative access is always evaluated
// against the persisted user record, re-fetched from the store, so a
// forged or stale is_admin claim in a token (or anywhere in the
// request) can never grant privileges on its own.
package authz
