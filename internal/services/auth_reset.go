package services

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/hi-deen/PharmaTrack/internal/auth"
	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/repo"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

// RequestPasswordReset always reports success to the caller. An unknown
// email creates no token and sends no mail, so the response does not
// reveal whether an account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return internalError("could not look up user")
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return internalError("could not generate token")
	}

	now := s.now()
	rec := models.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
	}
	if err := s.resets.Create(ctx, rec); err != nil {
		return internalError("could not store token")
	}

	link := s.cfg.FrontendURL + "/reset-password?token=" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return internalError("could not send mail")
	}
	return nil
}

// ConfirmPasswordReset redeems a token. The delete claims the token before
// the password is touched, so of two concurrent confirms exactly one
// succeeds and the other observes an invalid token.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	rec, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeTokenInvalid, "invalid or expired token", nil)
		}
		return internalError("could not look up token")
	}

	if rec.Expired(s.now()) {
		_, _ = s.resets.Delete(ctx, token)
		return utils.NewAppError(http.StatusBadRequest, utils.CodeTokenExpired, "expired token", nil)
	}

	if failed := s.policy.Validate(newPassword); len(failed) > 0 {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "password does not meet policy", failed)
	}

	user, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeTokenInvalid, "invalid or expired token", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return internalError("could not secure password")
	}

	deleted, err := s.resets.Delete(ctx, token)
	if err != nil {
		return internalError("could not consume token")
	}
	if !deleted {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeTokenInvalid, "invalid or expired token", nil)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return internalError("could not update password")
	}
	return nil
}
