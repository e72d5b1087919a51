package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hi-deen/PharmaTrack/internal/models"
)

// In-memory store implementations backing tests and DB-less development.
// They honor the same contracts as the pgx repositories, including the
// uniqueness guarantee on normalized email and delete-once semantics for
// reset tokens.

type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // keyed by id
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]*models.User)}
}

func (r *MemoryUserRepo) Create(_ context.Context, name, email, passwordHash string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := models.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == normalized {
			return nil, ErrEmailTaken
		}
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        normalized,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user

	clone := *user
	return &clone, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := models.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == normalized {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *MemoryUserRepo) update(id string, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepo) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	return r.update(userID, func(u *models.User) { u.LastLoginAt = &at })
}

func (r *MemoryUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	return r.update(userID, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r *MemoryUserRepo) SetPendingTOTPSecret(_ context.Context, userID, secret string) error {
	return r.update(userID, func(u *models.User) { u.MFA.PendingSecret = secret })
}

func (r *MemoryUserRepo) EnableTOTP(_ context.Context, userID, secret string) error {
	return r.update(userID, func(u *models.User) {
		u.MFA = models.MFAState{Enabled: true, Secret: secret}
	})
}

func (r *MemoryUserRepo) DisableTOTP(_ context.Context, userID string) error {
	return r.update(userID, func(u *models.User) { u.MFA = models.MFAState{} })
}

func (r *MemoryUserRepo) SetOTP(_ context.Context, userID, code string, expiresAt time.Time) error {
	return r.update(userID, func(u *models.User) {
		u.OTP = &models.OneTimeCode{Code: code, ExpiresAt: expiresAt}
	})
}

func (r *MemoryUserRepo) ClearOTP(_ context.Context, userID string) error {
	return r.update(userID, func(u *models.User) { u.OTP = nil })
}

// SetActive is a test hook for the deactivation path; the HTTP surface has
// no endpoint for it.
func (r *MemoryUserRepo) SetActive(userID string, active bool) error {
	return r.update(userID, func(u *models.User) { u.Active = active })
}

type MemoryResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]models.PasswordResetToken
}

func NewMemoryResetTokenRepo() *MemoryResetTokenRepo {
	return &MemoryResetTokenRepo{tokens: make(map[string]models.PasswordResetToken)}
}

func (r *MemoryResetTokenRepo) Create(_ context.Context, token models.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *MemoryResetTokenRepo) GetByToken(_ context.Context, token string) (*models.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *MemoryResetTokenRepo) Delete(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token]; !ok {
		return false, nil
	}
	delete(r.tokens, token)
	return true, nil
}

func (r *MemoryResetTokenRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type MemoryDepartmentRepo struct {
	mu          sync.Mutex
	departments map[string]models.Department
}

func NewMemoryDepartmentRepo() *MemoryDepartmentRepo {
	return &MemoryDepartmentRepo{departments: make(map[string]models.Department)}
}

func (r *MemoryDepartmentRepo) Create(_ context.Context, name string, description *string) (*models.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dept := models.Department{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
	r.departments[dept.ID] = dept
	return &dept, nil
}

func (r *MemoryDepartmentRepo) List(_ context.Context) ([]models.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]models.Department, 0, len(r.departments))
	for _, d := range r.departments {
		results = append(results, d)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

type MemoryActivityRepo struct {
	mu         sync.Mutex
	activities []models.Activity
}

func NewMemoryActivityRepo() *MemoryActivityRepo {
	return &MemoryActivityRepo{}
}

func (r *MemoryActivityRepo) Create(_ context.Context, activity *models.Activity) (*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity.ID = uuid.NewString()
	activity.CreatedAt = time.Now()
	r.activities = append(r.activities, *activity)
	return activity, nil
}

func (r *MemoryActivityRepo) List(_ context.Context, filters ActivityFilters) ([]models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit := filters.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var results []models.Activity
	for i := len(r.activities) - 1; i >= 0 && len(results) < limit; i-- {
		a := r.activities[i]
		if filters.DepartmentID != "" && a.DepartmentID != filters.DepartmentID {
			continue
		}
		if filters.Type != "" && a.ActivityType != filters.Type {
			continue
		}
		if filters.From != nil && a.CreatedAt.Before(*filters.From) {
			continue
		}
		if filters.To != nil && a.CreatedAt.After(*filters.To) {
			continue
		}
		results = append(results, a)
	}
	return results, nil
}
