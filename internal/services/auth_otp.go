package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/hi-deen/PharmaTrack/internal/auth"
	"github.com/hi-deen/PharmaTrack/internal/repo"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

const otpDigits = 6

// RequestLoginCode mails a short-lived one-time code as a password
// alternative. Like the reset request, unknown emails still get an OK.
func (s *AuthService) RequestLoginCode(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return internalError("could not look up user")
	}

	code, err := auth.GenerateNumericCode(otpDigits)
	if err != nil {
		return internalError("could not generate code")
	}

	if err := s.users.SetOTP(ctx, user.ID, code, s.now().Add(s.cfg.OTPCodeTTL)); err != nil {
		return internalError("could not store code")
	}

	if err := s.mailer.SendLoginCode(ctx, user.Email, code); err != nil {
		return internalError("could not send mail")
	}
	return nil
}

// VerifyLoginCode redeems a mailed code for a full session token. The code
// is single-use: it is cleared on success and on the first check past its
// expiry.
func (s *AuthService) VerifyLoginCode(ctx context.Context, email, code string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, invalidCredentials()
	}
	if user.OTP == nil {
		return nil, invalidCredentials()
	}

	if s.now().After(user.OTP.ExpiresAt) {
		if err := s.users.ClearOTP(ctx, user.ID); err != nil {
			return nil, internalError("could not clear code")
		}
		return nil, invalidCredentials()
	}

	if subtle.ConstantTimeCompare([]byte(user.OTP.Code), []byte(code)) != 1 {
		return nil, invalidCredentials()
	}

	if !user.Active {
		return nil, utils.NewAppError(http.StatusUnauthorized, utils.CodeAccountDisabled, "account disabled", nil)
	}

	if err := s.users.ClearOTP(ctx, user.ID); err != nil {
		return nil, internalError("could not clear code")
	}

	return s.completeLogin(ctx, user)
}
