package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hi-deen/PharmaTrack/internal/models"
)

type ResetTokenRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewResetTokenRepo(pool *pgxpool.Pool, timeout time.Duration) *ResetTokenRepo {
	return &ResetTokenRepo{pool: pool, timeout: timeout}
}

func (r *ResetTokenRepo) Create(ctx context.Context, token models.PasswordResetToken) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_reset_tokens (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, token.Token, token.UserID, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

func (r *ResetTokenRepo) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT token, user_id, created_at, expires_at
		FROM password_reset_tokens
		WHERE token = $1
	`, token)

	var rec models.PasswordResetToken
	if err := row.Scan(&rec.Token, &rec.UserID, &rec.CreatedAt, &rec.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reset token: %w", err)
	}
	return &rec, nil
}

// Delete removes a token and reports whether a row was actually deleted.
// Two concurrent confirms race on this delete; exactly one sees true.
func (r *ResetTokenRepo) Delete(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd, err := r.pool.Exec(ctx, `DELETE FROM password_reset_tokens WHERE token = $1`, token)
	if err != nil {
		return false, fmt.Errorf("delete reset token: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}
