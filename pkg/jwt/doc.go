// Package jwt provides stateless HMAC-SHA256 signed tokens in the
// compact three-segment JWT format. Tokens are the only session
// artifact the platform has: nothing is stored server-side and a token
// cannot be revoked, only outlived.
//
// The default parser is strict. A token is valid only when it has
// exactly three non-empty segments, declares the HS256 algorithm the
// service signs with, carries a signature that matches under a
// constant-time comparison, and sits inside its issued-at/expiry
// window. Any failed check rejects the token outright.
//
//	svc, err := jwt.NewFromString(cfg.Secret)
//	if err != nil {
//		// handle error
//	}
//	token, err := svc.Generate(claims)
//	...
//	var parsed AccessClaims
//	if err := svc.Parse(token, &parsed); err != nil {
//		// 401
//	}
//
// WithInsecureVerification opts a service into the platform's legacy
// broken verification (accepted "none" tokens, logged-but-ignored
// signature mismatches) so that the vulnerable behavior remains
// reproducible for scanners. It is never the default.
package jwt
