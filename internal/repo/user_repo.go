package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hi-deen/PharmaTrack/internal/models"
)

const userColumns = `id, name, email, password_hash, role, active,
	mfa_enabled, mfa_secret, mfa_pending_secret,
	otp_code, otp_expires_at, last_login_at, created_at, updated_at`

type UserRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewUserRepo(pool *pgxpool.Pool, timeout time.Duration) *UserRepo {
	return &UserRepo{pool: pool, timeout: timeout}
}

// Create inserts a new user. The unique index on lower(email) makes the
// duplicate check race-free: of two concurrent registrations one gets the
// row and the other gets ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string, role models.Role) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        models.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Active)

	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		models.NormalizeEmail(email))
	return scanUser(row)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE users SET last_login_at = $1, updated_at = NOW() WHERE id = $2
	`, "update last login", at, userID)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, "update password", passwordHash, userID)
}

// SetPendingTOTPSecret starts (or restarts) enrollment without touching the
// confirmed secret.
func (r *UserRepo) SetPendingTOTPSecret(ctx context.Context, userID, secret string) error {
	return r.exec(ctx, `
		UPDATE users SET mfa_pending_secret = $1, updated_at = NOW() WHERE id = $2
	`, "set pending totp secret", secret, userID)
}

// EnableTOTP promotes the pending secret in one statement so the record
// never holds enabled=true without a secret.
func (r *UserRepo) EnableTOTP(ctx context.Context, userID, secret string) error {
	return r.exec(ctx, `
		UPDATE users
		SET mfa_enabled = TRUE, mfa_secret = $1, mfa_pending_secret = NULL, updated_at = NOW()
		WHERE id = $2
	`, "enable totp", secret, userID)
}

func (r *UserRepo) DisableTOTP(ctx context.Context, userID string) error {
	return r.exec(ctx, `
		UPDATE users
		SET mfa_enabled = FALSE, mfa_secret = NULL, mfa_pending_secret = NULL, updated_at = NOW()
		WHERE id = $1
	`, "disable totp", userID)
}

func (r *UserRepo) SetOTP(ctx context.Context, userID, code string, expiresAt time.Time) error {
	return r.exec(ctx, `
		UPDATE users SET otp_code = $1, otp_expires_at = $2, updated_at = NOW() WHERE id = $3
	`, "set otp", code, expiresAt, userID)
}

func (r *UserRepo) ClearOTP(ctx context.Context, userID string) error {
	return r.exec(ctx, `
		UPDATE users SET otp_code = NULL, otp_expires_at = NULL, updated_at = NOW() WHERE id = $1
	`, "clear otp", userID)
}

func (r *UserRepo) exec(ctx context.Context, query, op string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user          models.User
		mfaSecret     *string
		pendingSecret *string
		otpCode       *string
		otpExpiresAt  *time.Time
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&user.MFA.Enabled,
		&mfaSecret,
		&pendingSecret,
		&otpCode,
		&otpExpiresAt,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if mfaSecret != nil {
		user.MFA.Secret = *mfaSecret
	}
	if pendingSecret != nil {
		user.MFA.PendingSecret = *pendingSecret
	}
	if otpCode != nil && otpExpiresAt != nil {
		user.OTP = &models.OneTimeCode{Code: *otpCode, ExpiresAt: *otpExpiresAt}
	}
	return &user, nil
}
