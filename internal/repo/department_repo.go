package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hi-deen/PharmaTrack/internal/models"
)

type DepartmentRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewDepartmentRepo(pool *pgxpool.Pool, timeout time.Duration) *DepartmentRepo {
	return &DepartmentRepo{pool: pool, timeout: timeout}
}

func (r *DepartmentRepo) Create(ctx context.Context, name string, description *string) (*models.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	dept := &models.Department{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO departments (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, dept.ID, dept.Name, dept.Description)

	if err := row.Scan(&dept.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert department: %w", err)
	}
	return dept, nil
}

func (r *DepartmentRepo) List(ctx context.Context) ([]models.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at
		FROM departments
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var results []models.Department
	for rows.Next() {
		var dept models.Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.Description, &dept.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		results = append(results, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}
	return results, nil
}
