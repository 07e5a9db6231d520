// Package authn implements the authentication service: registration,
// password login with an optional TOTP second factor, access token
// issuance, and credential mutation (name, email, password, 2FA
// enrollment).
//
// The service is the only writer of privileged principal state. Two
// invariants hold everywhere:
//
//   - The administrative flag and the TOTP secret are mutated solely on
//     behalf of a verified principal; they are never derived from
//     unauthenticated client input. Registration hard-codes the flag to
//     false, and token claims snapshot it from the stored record.
//   - Every mutation of an existing credential (email, password, 2FA
//     disable) requires re-proof of the current password, and the
//     target principal is the one the verified token identifies.
//
// Storage is an injected interface; production wiring uses the
// Postgres repository in internal/storage, tests use in-memory fakes.
package authn
