package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hi-deen/PharmaTrack/internal/auth"
	"github.com/hi-deen/PharmaTrack/internal/config"
	"github.com/hi-deen/PharmaTrack/internal/mail"
	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/repo"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

// bcrypt work factor, matching what the accounts were originally hashed with.
const bcryptCost = 12

// UserStore is the credential store contract. Satisfied by repo.UserRepo
// and repo.MemoryUserRepo.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string, role models.Role) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetPendingTOTPSecret(ctx context.Context, userID, secret string) error
	EnableTOTP(ctx context.Context, userID, secret string) error
	DisableTOTP(ctx context.Context, userID string) error
	SetOTP(ctx context.Context, userID, code string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, userID string) error
}

// ResetTokenStore is the reset-token persistence contract.
type ResetTokenStore interface {
	Create(ctx context.Context, token models.PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	Delete(ctx context.Context, token string) (bool, error)
}

type AuthService struct {
	users  UserStore
	resets ResetTokenStore
	tokens *auth.TokenManager
	totp   auth.TOTP
	policy auth.PasswordPolicy
	mailer mail.Mailer
	cfg    *config.Config
	now    func() time.Time
}

func NewAuthService(users UserStore, resets ResetTokenStore, tokens *auth.TokenManager, totp auth.TOTP, mailer mail.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		users:  users,
		resets: resets,
		tokens: tokens,
		totp:   totp,
		policy: auth.PasswordPolicy{MinLength: cfg.PasswordMinLen},
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// TokenResponse is the successful authentication payload.
type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// LoginResult distinguishes a completed login from an MFA-pending one.
type LoginResult struct {
	MFAPending bool
	TempToken  string
	Token      string
	User       *models.User
}

func (s *AuthService) Register(ctx context.Context, name, email, password, roleStr string) (*TokenResponse, error) {
	role, ok := models.ParseRole(roleStr)
	if !ok {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "invalid role", nil)
	}

	if failed := s.policy.Validate(password); len(failed) > 0 {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "password does not meet policy", failed)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, internalError("could not secure password")
	}

	user, err := s.users.Create(ctx, name, email, string(hash), role)
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, utils.NewAppError(http.StatusConflict, utils.CodeConflict, "user exists", nil)
		}
		return nil, internalError("could not create user")
	}

	token, err := s.tokens.IssueFull(user.ID, string(user.Role), user.Email)
	if err != nil {
		return nil, internalError("could not generate token")
	}

	return &TokenResponse{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, invalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}

	// Checked only after the password matched, so an attacker probing
	// emails cannot learn the disabled state.
	if !user.Active {
		return nil, utils.NewAppError(http.StatusUnauthorized, utils.CodeAccountDisabled, "account disabled", nil)
	}

	if user.MFA.Enabled {
		tempToken, err := s.tokens.IssuePartial(user.ID)
		if err != nil {
			return nil, internalError("could not generate token")
		}
		return &LoginResult{MFAPending: true, TempToken: tempToken}, nil
	}

	return s.completeLogin(ctx, user)
}

// VerifyMFALogin finishes a login that stopped at the second factor. No
// full token is ever issued unless both the partial token and the code
// check out.
func (s *AuthService) VerifyMFALogin(ctx context.Context, tempToken, code string) (*LoginResult, error) {
	claims, err := s.tokens.Verify(tempToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if !claims.MFAPending {
		return nil, utils.NewAppError(http.StatusUnauthorized, utils.CodeTokenInvalid, "invalid token", nil)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, utils.NewAppError(http.StatusUnauthorized, utils.CodeTokenInvalid, "invalid token", nil)
	}
	if !user.MFA.Enabled || user.MFA.Secret == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "mfa not enabled", nil)
	}

	if !s.totp.Verify(user.MFA.Secret, code, s.now()) {
		return nil, utils.NewAppError(http.StatusUnauthorized, utils.CodeMFAInvalidCode, "invalid code", nil)
	}

	return s.completeLogin(ctx, user)
}

// GetUser resolves a principal's user record, for /me.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
		}
		return nil, internalError("could not load user")
	}
	return user, nil
}

func (s *AuthService) completeLogin(ctx context.Context, user *models.User) (*LoginResult, error) {
	token, err := s.tokens.IssueFull(user.ID, string(user.Role), user.Email)
	if err != nil {
		return nil, internalError("could not generate token")
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, internalError("could not record login")
	}
	return &LoginResult{Token: token, User: user}, nil
}

func invalidCredentials() *utils.AppError {
	return utils.NewAppError(http.StatusUnauthorized, utils.CodeInvalidCredentials, "invalid credentials", nil)
}

func internalError(message string) *utils.AppError {
	return utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, message, nil)
}

func tokenError(err error) *utils.AppError {
	if errors.Is(err, auth.ErrTokenExpired) {
		return utils.NewAppError(http.StatusUnauthorized, utils.CodeTokenExpired, "token expired", nil)
	}
	return utils.NewAppError(http.StatusUnauthorized, utils.CodeTokenInvalid, "invalid token", nil)
}
