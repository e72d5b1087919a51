package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/services"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

type DepartmentHandler struct {
	departments *services.DepartmentService
}

type CreateDepartmentRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func NewDepartmentHandler(departments *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

func (h *DepartmentHandler) Create(c *gin.Context) {
	var req CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	dept, err := h.departments.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondCreated(c, dept)
}

func (h *DepartmentHandler) List(c *gin.Context) {
	list, err := h.departments.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}
