package authn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taintedport/taintedport/pkg/jwt"
	"github.com/taintedport/taintedport/pkg/logger"
	"github.com/taintedport/taintedport/pkg/totp"
)

const (
	// DefaultTokenTTL is how long an issued access token stays valid.
	// Tokens are stateless and unrevocable, so this is the only bound
	// on a stolen token's lifetime.
	DefaultTokenTTL = 7 * 24 * time.Hour

	// DefaultIssuer labels tokens and TOTP provisioning URIs.
	DefaultIssuer = "TaintedPort"

	minPasswordLength = 8
	maxNameLength     = 100

	// minSecretLength is the smallest normalized TOTP secret accepted
	// at enrollment (80 bits of Base32).
	minSecretLength = 16
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Service orchestrates registration, login, credential mutation and
// the TOTP enrollment lifecycle. All privileged state transitions go
// through here acting on a verified principal; nothing in this package
// trusts identifiers or flags taken from request bodies.
type Service struct {
	storage    Storage
	tokens     *jwt.Service
	bcryptCost int
	tokenTTL   time.Duration
	issuer     string
	logger     *slog.Logger
}

// Option configures the authentication service.
type Option func(*Service)

// WithBcryptCost sets the bcrypt cost for password hashing.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.tokenTTL = ttl }
}

// WithIssuer sets the issuer name embedded in tokens and otpauth URIs.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates the authentication service.
func NewService(storage Storage, tokens *jwt.Service, opts ...Option) *Service {
	s := &Service{
		storage:    storage,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		tokenTTL:   DefaultTokenTTL,
		issuer:     DefaultIssuer,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new principal and issues its first access token.
// The administrative flag is always false for new registrations; it is
// not an input to this operation.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, string, error) {
	email = normalizeEmail(email)

	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, "", ErrInvalidName
	}
	if !emailRegex.MatchString(email) {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}

	_, err := s.storage.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, "", ErrEmailAlreadyExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		IsAdmin:   false,
		CreatedAt: time.Now(),
	}

	if err := s.storage.CreateUser(ctx, user, hash); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered",
		logger.UserID(user.ID.String()),
		logger.Component("authn"),
	)

	return user, token, nil
}

// Login verifies the credentials and, when the principal is enrolled in
// TOTP, the second factor. Every credential failure maps to the generic
// ErrInvalidCredentials so the response cannot be used as an existence
// oracle for email addresses.
func (s *Service) Login(ctx context.Context, email, password, totpCode string) (*LoginResult, error) {
	email = normalizeEmail(email)

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	hash, err := s.storage.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		if totpCode == "" {
			// The password checked out but the second factor is
			// outstanding; no token is issued on this path.
			return &LoginResult{SecondFactorRequired: true}, nil
		}

		secret, err := s.storage.GetTOTPSecret(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load TOTP secret: %w", err)
		}
		if !totp.Verify(secret, totpCode) {
			s.logger.Warn("second factor rejected at login",
				logger.UserID(user.ID.String()),
				logger.Component("authn"),
			)
			return nil, ErrSecondFactorInvalid
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Token: token}, nil
}

// Profile returns the persisted record of the given principal.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.storage.GetUserByID(ctx, userID)
}

// UpdateProfile changes the display name of the authenticated
// principal. The target is always the verified token's principal; a
// client-supplied identifier is never consulted.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, ErrInvalidName
	}

	if err := s.storage.UpdateName(ctx, userID, name); err != nil {
		return nil, fmt.Errorf("failed to update name: %w", err)
	}

	return s.storage.GetUserByID(ctx, userID)
}

// ChangeEmail updates the principal's email after re-proving the
// current password, and reissues the access token so the email claim
// stays accurate.
func (s *Service) ChangeEmail(ctx context.Context, userID uuid.UUID, password, newEmail string) (*User, string, error) {
	newEmail = normalizeEmail(newEmail)
	if !emailRegex.MatchString(newEmail) {
		return nil, "", ErrInvalidEmail
	}

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	if err := s.verifyPassword(ctx, userID, password); err != nil {
		return nil, "", err
	}

	if newEmail != user.Email {
		if _, err := s.storage.GetUserByEmail(ctx, newEmail); err == nil {
			return nil, "", ErrEmailAlreadyExists
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, "", fmt.Errorf("failed to check existing user: %w", err)
		}

		if err := s.storage.UpdateEmail(ctx, userID, newEmail); err != nil {
			return nil, "", fmt.Errorf("failed to update email: %w", err)
		}
		user.Email = newEmail
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ChangePassword replaces the password credential after re-proving the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	if err := s.verifyPassword(ctx, userID, currentPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.storage.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password changed",
		logger.UserID(userID.String()),
		logger.Component("authn"),
	)
	return nil
}

// verifyPassword re-proves the current password of a principal.
// Returns ErrIncorrectPassword on mismatch.
func (s *Service) verifyPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := s.storage.GetPasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrIncorrectPassword
	}
	return nil
}

// issueToken signs an access token whose claims are populated from the
// persisted record exclusively.
func (s *Service) issueToken(user *User) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
		UserID:  user.ID.String(),
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}

	token, err := s.tokens.Generate(claims)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// normalizeEmail lower-cases and trims an email address so lookups and
// the unique constraint agree on a canonical form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
