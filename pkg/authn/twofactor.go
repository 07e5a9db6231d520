package authn

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taintedport/taintedport/pkg/logger"
	"github.com/taintedport/taintedport/pkg/qrcode"
	"github.com/taintedport/taintedport/pkg/totp"
)

// SetupTOTP begins enrollment for the authenticated principal. It
// generates a fresh secret and returns it with the otpauth URI and a
// rendered QR code. The secret is not persisted here; enrollment only
// completes when EnableTOTP verifies a code derived from it.
func (s *Service) SetupTOTP(ctx context.Context, userID uuid.UUID) (*TOTPSetup, error) {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	secret, err := totp.GenerateSecret(totp.SecretLength)
	if err != nil {
		return nil, err
	}

	uri, err := totp.ProvisioningURI(secret, user.Email, s.issuer)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.GenerateDataURI(uri, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to render provisioning QR code: %w", err)
	}

	return &TOTPSetup{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCode:          qr,
	}, nil
}

// EnableTOTP completes enrollment: the supplied code must verify
// against the supplied (not yet persisted) secret before anything is
// stored and the enrollment flag flips.
func (s *Service) EnableTOTP(ctx context.Context, userID uuid.UUID, secret, code string) error {
	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}

	secret = totp.NormalizeSecret(secret)
	if len(secret) < minSecretLength {
		return ErrInvalidTOTPSecret
	}

	if !totp.Verify(secret, code) {
		return ErrSecondFactorInvalid
	}

	if err := s.storage.EnableTOTP(ctx, userID, secret); err != nil {
		return fmt.Errorf("failed to enable TOTP: %w", err)
	}

	s.logger.Info("two-factor authentication enabled",
		logger.UserID(userID.String()),
		logger.Component("authn"),
	)
	return nil
}

// DisableTOTP clears the secret and enrollment flag for the
// authenticated principal after re-proving the password. Only the
// verified token's principal can be the target.
func (s *Service) DisableTOTP(ctx context.Context, userID uuid.UUID, password string) error {
	if err := s.verifyPassword(ctx, userID, password); err != nil {
		return err
	}

	if err := s.storage.DisableTOTP(ctx, userID); err != nil {
		return fmt.Errorf("failed to disable TOTP: %w", err)
	}

	s.logger.Info("two-factor authentication disabled",
		logger.UserID(userID.String()),
		logger.Component("authn"),
	)
	return nil
}
