package authn

import "errors"

// General authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectPassword  = errors.New("incorrect password")
)

// Input validation errors
var (
	ErrInvalidEmail = errors.New("invalid email format")
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	ErrInvalidName  = errors.New("name must be between 1 and 100 characters")
)

// Second-factor errors
var (
	ErrSecondFactorInvalid = errors.New("invalid two-factor authentication code")
	ErrTOTPAlreadyEnabled  = errors.New("two-factor authentication is already enabled")
	ErrInvalidTOTPSecret   = errors.New("invalid TOTP secret")
)
