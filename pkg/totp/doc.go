// Package totp implements RFC 6238 time-based one-time passwords for
// the second-factor login flow.
//
// The package covers the full enrollment lifecycle: generating a random
// Base32 shared secret, building the otpauth:// provisioning URI that
// authenticator apps scan, and verifying user-submitted codes with a
// small clock-skew window.
//
//	secret, err := totp.GenerateSecret(totp.SecretLength)
//	if err != nil {
//		// handle error
//	}
//	uri, _ := totp.ProvisioningURI(secret, "user@example.com", "TaintedPort")
//
//	// Later, during login:
//	if !totp.Verify(secret, submittedCode) {
//		// reject
//	}
//
// Code generation is deterministic and side-effect free; verification
// iterates a fixed window of candidate time steps and compares in
// constant time. Nothing in this package performs I/O.
package totp
