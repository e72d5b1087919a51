package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

// DepartmentStore is satisfied by repo.DepartmentRepo and repo.MemoryDepartmentRepo.
type DepartmentStore interface {
	Create(ctx context.Context, name string, description *string) (*models.Department, error)
	List(ctx context.Context) ([]models.Department, error)
}

type DepartmentService struct {
	departments DepartmentStore
}

func NewDepartmentService(departments DepartmentStore) *DepartmentService {
	return &DepartmentService{departments: departments}
}

func (s *DepartmentService) Create(ctx context.Context, name string, description *string) (*models.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "name required", nil)
	}

	dept, err := s.departments.Create(ctx, name, description)
	if err != nil {
		return nil, internalError("could not create department")
	}
	return dept, nil
}

func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	list, err := s.departments.List(ctx)
	if err != nil {
		return nil, internalError("could not list departments")
	}
	if list == nil {
		list = []models.Department{}
	}
	return list, nil
}
