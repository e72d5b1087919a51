package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/http/middleware"
	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/repo"
	"github.com/hi-deen/PharmaTrack/internal/services"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

type ActivityHandler struct {
	activities *services.ActivityService
}

type CreateActivityRequest struct {
	DepartmentID string         `json:"department_id" binding:"required"`
	ActivityType string         `json:"activity_type" binding:"required"`
	PerformedBy  *string        `json:"performed_by"`
	StartedAt    *time.Time     `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at"`
	Status       string         `json:"status"`
	Shift        *string        `json:"shift"`
	Details      map[string]any `json:"details"`
	Metadata     map[string]any `json:"metadata"`
}

func NewActivityHandler(activities *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

func (h *ActivityHandler) Create(c *gin.Context) {
	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	activity := &models.Activity{
		DepartmentID: req.DepartmentID,
		ActivityType: req.ActivityType,
		PerformedBy:  req.PerformedBy,
		StartedAt:    req.StartedAt,
		FinishedAt:   req.FinishedAt,
		Status:       req.Status,
		Shift:        req.Shift,
		Details:      req.Details,
		Metadata:     req.Metadata,
	}

	// Attribute to the caller unless the request names someone else.
	if activity.PerformedBy == nil {
		if principal, ok := middleware.PrincipalFrom(c); ok {
			activity.PerformedBy = &principal.ID
		}
	}

	created, err := h.activities.Create(c.Request.Context(), activity)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondCreated(c, created)
}

func (h *ActivityHandler) List(c *gin.Context) {
	filters := repo.ActivityFilters{
		DepartmentID: c.Query("departmentId"),
		Type:         c.Query("type"),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			utils.RespondValidationError(c, "from must be RFC3339")
			return
		}
		filters.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			utils.RespondValidationError(c, "to must be RFC3339")
			return
		}
		filters.To = &t
	}
	if limit := c.Query("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 1 {
			utils.RespondValidationError(c, "limit must be a positive integer")
			return
		}
		filters.Limit = parsed
	}

	items, err := h.activities.List(c.Request.Context(), filters)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}
