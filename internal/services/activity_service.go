package services

import (
	"context"
	"net/http"

	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/realtime"
	"github.com/hi-deen/PharmaTrack/internal/repo"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

// ActivityStore is satisfied by repo.ActivityRepo and repo.MemoryActivityRepo.
type ActivityStore interface {
	Create(ctx context.Context, activity *models.Activity) (*models.Activity, error)
	List(ctx context.Context, filters repo.ActivityFilters) ([]models.Activity, error)
}

type ActivityService struct {
	activities ActivityStore
	hub        *realtime.Hub
}

func NewActivityService(activities ActivityStore, hub *realtime.Hub) *ActivityService {
	return &ActivityService{activities: activities, hub: hub}
}

// Create stores the activity and broadcasts it to the department room so
// live feed subscribers see it immediately.
func (s *ActivityService) Create(ctx context.Context, activity *models.Activity) (*models.Activity, error) {
	if activity.DepartmentID == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "department_id required", nil)
	}
	if activity.ActivityType == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "activity_type required", nil)
	}
	if activity.Status == "" {
		activity.Status = models.ActivityCompleted
	}
	if !models.ValidActivityStatus(activity.Status) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "invalid status", nil)
	}
	if activity.Shift != nil && !models.ValidShift(*activity.Shift) {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "invalid shift", nil)
	}

	created, err := s.activities.Create(ctx, activity)
	if err != nil {
		return nil, internalError("could not create activity")
	}

	s.hub.Publish(realtime.DepartmentRoom(created.DepartmentID), realtime.Event{
		Name:    "activity:created",
		Payload: created,
	})
	return created, nil
}

func (s *ActivityService) List(ctx context.Context, filters repo.ActivityFilters) ([]models.Activity, error) {
	items, err := s.activities.List(ctx, filters)
	if err != nil {
		return nil, internalError("could not list activities")
	}
	if items == nil {
		items = []models.Activity{}
	}
	return items, nil
}
