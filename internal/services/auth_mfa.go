package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/hi-deen/PharmaTrack/internal/repo"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

// MFASetup carries the enrollment payload. The secret is shown exactly
// once, at enrollment; there is no read-back path for a confirmed secret.
type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// BeginMFASetup generates a fresh secret and parks it as pending. Calling
// it again before confirmation replaces the pending secret; the confirmed
// secret, if any, is untouched until ConfirmMFASetup promotes the new one.
func (s *AuthService) BeginMFASetup(ctx context.Context, userID string) (*MFASetup, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		return nil, internalError("could not load user")
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, internalError("could not generate secret")
	}

	if err := s.users.SetPendingTOTPSecret(ctx, user.ID, secret); err != nil {
		return nil, internalError("could not store secret")
	}

	return &MFASetup{
		Secret:     secret,
		OTPAuthURL: s.totp.ProvisionURI(secret, user.Email),
	}, nil
}

// ConfirmMFASetup promotes the pending secret once the user proves their
// authenticator produces valid codes. On a bad code nothing changes.
func (s *AuthService) ConfirmMFASetup(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
	}
	if user.MFA.PendingSecret == "" {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "setup not started", nil)
	}

	if !s.totp.Verify(user.MFA.PendingSecret, code, s.now()) {
		return utils.NewAppError(http.StatusUnauthorized, utils.CodeMFAInvalidCode, "invalid code", nil)
	}

	if err := s.users.EnableTOTP(ctx, user.ID, user.MFA.PendingSecret); err != nil {
		return internalError("could not enable mfa")
	}
	return nil
}

// DisableMFA requires a valid current code so a hijacked session alone
// cannot turn the second factor off.
func (s *AuthService) DisableMFA(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
	}
	if !user.MFA.Enabled || user.MFA.Secret == "" {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "mfa not enabled", nil)
	}

	if !s.totp.Verify(user.MFA.Secret, code, s.now()) {
		return utils.NewAppError(http.StatusUnauthorized, utils.CodeMFAInvalidCode, "invalid code", nil)
	}

	if err := s.users.DisableTOTP(ctx, user.ID); err != nil {
		return internalError("could not disable mfa")
	}
	return nil
}
