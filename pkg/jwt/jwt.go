package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// JWT header constants required by RFC 7519
const (
	HeaderType      = "JWT"
	HeaderAlgorithm = "HS256"

	// AlgorithmNone is the unsigned-token algorithm identifier. It is
	// always rejected by the default parser and only ever honored by a
	// service built with WithInsecureVerification.
	AlgorithmNone = "none"
)

// iatLeeway is how far into the future an issued-at claim may sit
// before the token is rejected as not yet valid.
const iatLeeway = 60 * time.Second

// Header represents the JWT header as defined in RFC 7515
type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// StandardClaims carries the registered temporal claims shared by every
// token this service issues. Zero values are treated as unset per
// RFC 7519 and skipped during validation.
type StandardClaims struct {
	Subject   string `json:"sub,omitempty"` // Principal identifier
	Issuer    string `json:"iss,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"` // Unix timestamp when token dies
	IssuedAt  int64  `json:"iat,omitempty"` // Unix timestamp when token was created
}

// Valid checks the temporal claims against the current time. A token is
// dead once now reaches exp, and rejected when iat sits further in the
// future than the clock-skew leeway allows.
func (c StandardClaims) Valid() error {
	now := time.Now()

	if c.ExpiresAt > 0 && now.Unix() >= c.ExpiresAt {
		return ErrExpiredToken
	}

	if c.IssuedAt > 0 && time.Unix(c.IssuedAt, 0).After(now.Add(iatLeeway)) {
		return ErrInvalidToken
	}

	return nil
}

// Service signs and verifies compact three-segment tokens with
// HMAC-SHA256. The signing key lives only in memory.
type Service struct {
	signingKey []byte
	insecure   bool
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInsecureVerification makes Parse reproduce the legacy vulnerable
// verification behavior: tokens declaring alg "none" are accepted
// without a signature, and signature mismatches are logged but not
// rejected. Temporal claims are still enforced.
//
// This mode exists solely so security scanners and trainees can probe a
// known-broken token path. Never enable it outside that context.
func WithInsecureVerification(logger *slog.Logger) Option {
	return func(s *Service) {
		s.insecure = true
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a token service with the provided signing key.
// The key should be at least 32 bytes for adequate HMAC-SHA256 security.
func New(signingKey []byte, opts ...Option) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		signingKey: signingKey,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewFromString creates a token service from a string signing key.
func NewFromString(signingKey string, opts ...Option) (*Service, error) {
	if signingKey == "" {
		return nil, ErrMissingSigningKey
	}
	return New([]byte(signingKey), opts...)
}

// Generate signs the given claims and returns the compact token string.
func (s *Service) Generate(claims any) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}

	headerJSON, err := json.Marshal(Header{
		Type:      HeaderType,
		Algorithm: HeaderAlgorithm,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + s.sign(payload), nil
}

// Parse verifies a token and unmarshals its claims into the provided
// structure. A token is either fully valid or rejected: structural
// shape, declared algorithm, signature and temporal claims must all
// pass, and no failure produces a partially trusted result.
func (s *Service) Parse(tokenString string, claims any) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return ErrInvalidToken
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return ErrInvalidToken
	}

	// The legacy path honors an unsigned "none" token outright.
	if s.insecure && strings.EqualFold(header.Algorithm, AlgorithmNone) {
		s.logger.Warn("accepting unsigned token via legacy verification",
			slog.String("alg", header.Algorithm))
		return s.decodeClaims(parts[1], claims)
	}

	if parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return ErrInvalidToken
	}

	// Tokens declaring any algorithm other than the one this service
	// signs with are rejected before the signature is even inspected,
	// closing the algorithm-confusion route.
	if header.Algorithm != HeaderAlgorithm {
		return ErrUnexpectedSigningMethod
	}

	expected := s.sign(parts[0] + "." + parts[1])
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		if !s.insecure {
			return ErrInvalidSignature
		}
		s.logger.Warn("signature mismatch on token, accepting via legacy verification")
	}

	return s.decodeClaims(parts[1], claims)
}

// decodeClaims unmarshals the payload segment and runs temporal
// validation when the claims type provides it.
func (s *Service) decodeClaims(segment string, claims any) error {
	claimsJSON, err := base64URLDecode(segment)
	if err != nil {
		return ErrInvalidToken
	}

	if err := json.Unmarshal(claimsJSON, claims); err != nil {
		return fmt.Errorf("failed to unmarshal claims: %w", err)
	}

	if validator, ok := claims.(interface{ Valid() error }); ok {
		if err := validator.Valid(); err != nil {
			return err
		}
	}
	return nil
}

// sign computes the base64url-encoded HMAC-SHA256 of the payload.
func (s *Service) sign(payload string) string {
	h := hmac.New(sha256.New, s.signingKey)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

// base64URLEncode encodes data using base64url without padding, as
// required by RFC 7515.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// base64URLDecode decodes base64url data with or without padding.
func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
