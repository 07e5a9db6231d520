package totp

import "strings"

// Alphabet is the RFC 4648 Base32 alphabet used for shared secrets.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// DecodeSecret decodes a Base32 shared secret into raw key bytes.
// Decoding is deliberately lenient: input is case-insensitive and any
// character outside the alphabet (including '=' padding) is skipped.
// Authenticator apps and manual entry produce secrets with spaces,
// dashes and mixed case, so strict decoding would reject valid keys.
func DecodeSecret(secret string) []byte {
	secret = strings.ToUpper(secret)

	var (
		buffer   uint
		bitsLeft uint
		out      []byte
	)
	for i := 0; i < len(secret); i++ {
		val := strings.IndexByte(Alphabet, secret[i])
		if val < 0 {
			continue
		}
		buffer = buffer<<5 | uint(val)
		bitsLeft += 5
		if bitsLeft >= 8 {
			bitsLeft -= 8
			out = append(out, byte(buffer>>bitsLeft))
		}
	}
	return out
}

// NormalizeSecret upper-cases a secret and strips every character
// outside the Base32 alphabet. Used before persisting a user-supplied
// secret so the stored form is canonical.
func NormalizeSecret(secret string) string {
	var b strings.Builder
	b.Grow(len(secret))
	for _, c := range strings.ToUpper(secret) {
		if strings.ContainsRune(Alphabet, c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}
