package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdminUser creates the bootstrap administrator account when the
// configured email does not exist yet. Both values empty means no seeding.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))

	exists, err := userExists(ctx, pool, timeout, email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	ctxInsert, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err = pool.Exec(ctxInsert, `
		INSERT INTO users (id, name, email, password_hash, role, active)
		VALUES ($1, $2, $3, $4, 'admin', TRUE)
	`, uuid.NewString(), "Administrator", email, string(hash))
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	return nil
}

func userExists(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration, email string) (bool, error) {
	ctxCheck, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	row := pool.QueryRow(ctxCheck, "SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1)", email)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}
