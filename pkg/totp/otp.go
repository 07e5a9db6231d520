package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"
)

const (
	Digits    = 6      // Standard 6-digit TOTP codes
	Period    = 30     // 30-second validity window (RFC 6238 standard)
	Algorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)

	// SecretLength is the default secret size in Base32 characters,
	// 32 characters encoding 160 bits of entropy.
	SecretLength = 32

	// DefaultWindow is the number of adjacent time steps accepted on
	// either side of the current one, tolerating ±30s of clock skew.
	DefaultWindow = 1
)

// codeRegex matches a well-formed zero-padded 6-digit code.
var codeRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, Digits))

// GenerateSecret returns a new random Base32 secret of the given length.
// The characters are drawn uniformly from the 32-symbol alphabet using a
// cryptographically secure source.
func GenerateSecret(length int) (string, error) {
	if length <= 0 {
		length = SecretLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecret, err)
	}
	// 256 is an exact multiple of 32, so the modulo keeps the draw uniform.
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf), nil
}

// Code computes the TOTP code for the 30-second window containing t.
// It is a pure function of (secret, t) and never fails: a malformed
// secret simply yields a code no authenticator will ever produce.
func Code(secret string, t time.Time) string {
	counter := t.Unix() / Period
	return fmt.Sprintf("%0*d", Digits, hotp(DecodeSecret(secret), counter))
}

// Verify reports whether code is valid for secret at the current time,
// accepting the previous, current and next time steps.
func Verify(secret, code string) bool {
	return VerifyAt(secret, code, time.Now(), DefaultWindow)
}

// VerifyAt reports whether code is valid for secret at time t, checking
// every time step within ±window steps. Candidate comparison is
// constant-time. Malformed codes and empty secrets return false rather
// than an error; verification failure is never distinguishable by cause.
func VerifyAt(secret, code string, t time.Time, window int) bool {
	if secret == "" || !codeRegex.MatchString(code) {
		return false
	}
	if window < 0 {
		window = 0
	}

	matched := false
	for i := -window; i <= window; i++ {
		candidate := Code(secret, t.Add(time.Duration(i)*Period*time.Second))
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(code)) == 1 {
			matched = true
		}
	}
	return matched
}

// ProvisioningURI builds the otpauth:// URI that authenticator apps
// consume, following the Key Uri Format used by Google Authenticator.
func ProvisioningURI(secret, accountName, issuer string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if accountName == "" {
		return "", ErrMissingAccountName
	}
	if issuer == "" {
		return "", ErrMissingIssuer
	}

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(issuer),
		url.PathEscape(accountName),
	)

	query := url.Values{}
	query.Set("secret", secret)
	query.Set("issuer", issuer)
	query.Set("algorithm", Algorithm)
	query.Set("digits", fmt.Sprintf("%d", Digits))
	query.Set("period", fmt.Sprintf("%d", Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// hotp implements the RFC 4226 HMAC-based one-time password algorithm,
// reducing an HMAC-SHA1 of the counter to a Digits-digit integer.
func hotp(key []byte, counter int64) int {
	// Counter is packed as an 8-byte big-endian integer per RFC 4226.
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	hash := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte selects a 4-byte
	// slice, whose top bit is cleared to yield a 31-bit integer.
	offset := hash[len(hash)-1] & 0x0f
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]) << 16) |
		(int(hash[offset+2]) << 8) |
		int(hash[offset+3])

	mod := 1
	for i := 0; i < Digits; i++ {
		mod *= 10
	}
	return code % mod
}
