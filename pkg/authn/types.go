package authn

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taintedport/taintedport/pkg/jwt"
)

// User is a principal as exposed to the rest of the application. The
// password hash and the TOTP secret never leave the storage layer
// through this type.
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	IsAdmin     bool      `json:"is_admin"`
	TOTPEnabled bool      `json:"totp_enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// Storage defines the credential store operations the authentication
// service depends on. Implementations must use parameterized queries
// exclusively; no query may be built from interpolated user input.
type Storage interface {
	CreateUser(ctx context.Context, user *User, passwordHash []byte) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	GetPasswordHash(ctx context.Context, id uuid.UUID) ([]byte, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdateName(ctx context.Context, id uuid.UUID, name string) error

	GetTOTPSecret(ctx context.Context, id uuid.UUID) (string, error)
	EnableTOTP(ctx context.Context, id uuid.UUID, secret string) error
	DisableTOTP(ctx context.Context, id uuid.UUID) error
}

// AccessClaims is the payload of every access token the service issues.
// IsAdmin is a snapshot of the persisted flag at issuance time; it is
// populated from the stored record only, never from request input.
type AccessClaims struct {
	jwt.StandardClaims
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// LoginResult is the outcome of a credential check. When the principal
// is enrolled in TOTP and no code was supplied, SecondFactorRequired is
// set and no token is issued.
type LoginResult struct {
	User                 *User
	Token                string
	SecondFactorRequired bool
}

// TOTPSetup carries the secret generated during enrollment together
// with its provisioning URI and a rendered QR code. Nothing here is
// persisted until the code verification in EnableTOTP succeeds.
type TOTPSetup struct {
	Secret          string
	ProvisioningURI string
	QRCode          string // PNG data URI for client-side rendering
}
