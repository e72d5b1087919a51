package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hi-deen/PharmaTrack/internal/models"
)

type ActivityRepo struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

type ActivityFilters struct {
	DepartmentID string
	Type         string
	From         *time.Time
	To           *time.Time
	Limit        int
}

func NewActivityRepo(pool *pgxpool.Pool, timeout time.Duration) *ActivityRepo {
	return &ActivityRepo{pool: pool, timeout: timeout}
}

func (r *ActivityRepo) Create(ctx context.Context, activity *models.Activity) (*models.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	activity.ID = uuid.NewString()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO activities (
			id, department_id, activity_type, performed_by,
			started_at, finished_at, status, shift, details, metadata
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`,
		activity.ID,
		activity.DepartmentID,
		activity.ActivityType,
		activity.PerformedBy,
		activity.StartedAt,
		activity.FinishedAt,
		activity.Status,
		activity.Shift,
		activity.Details,
		activity.Metadata,
	)

	if err := row.Scan(&activity.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return activity, nil
}

func (r *ActivityRepo) List(ctx context.Context, filters ActivityFilters) ([]models.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	whereSQL, args := buildActivityFilters(filters)

	limit := filters.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, department_id, activity_type, performed_by,
		started_at, finished_at, status, shift, details, metadata, created_at
		FROM activities
		%s
		ORDER BY created_at DESC
		LIMIT %d
	`, whereSQL, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var results []models.Activity
	for rows.Next() {
		var activity models.Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.DepartmentID,
			&activity.ActivityType,
			&activity.PerformedBy,
			&activity.StartedAt,
			&activity.FinishedAt,
			&activity.Status,
			&activity.Shift,
			&activity.Details,
			&activity.Metadata,
			&activity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		results = append(results, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return results, nil
}

func buildActivityFilters(filters ActivityFilters) (string, []any) {
	clauses := []string{"WHERE 1=1"}
	args := []any{}
	index := 1

	if filters.DepartmentID != "" {
		clauses = append(clauses, fmt.Sprintf("AND department_id = $%d", index))
		args = append(args, filters.DepartmentID)
		index++
	}

	if filters.Type != "" {
		clauses = append(clauses, fmt.Sprintf("AND activity_type = $%d", index))
		args = append(args, filters.Type)
		index++
	}

	if filters.From != nil {
		clauses = append(clauses, fmt.Sprintf("AND created_at >= $%d", index))
		args = append(args, *filters.From)
		index++
	}

	if filters.To != nil {
		clauses = append(clauses, fmt.Sprintf("AND created_at <= $%d", index))
		args = append(args, *filters.To)
		index++
	}

	return strings.Join(clauses, "\n"), args
}
