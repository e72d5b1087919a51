package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/http/middleware"
	"github.com/hi-deen/PharmaTrack/internal/services"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

type MFAHandler struct {
	auth *services.AuthService
}

func NewMFAHandler(auth *services.AuthService) *MFAHandler {
	return &MFAHandler{auth: auth}
}

type MFACodeRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *MFAHandler) Setup(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, utils.CodeMissingCredentials, "missing token", nil))
		return
	}

	setup, err := h.auth.BeginMFASetup(c.Request.Context(), principal.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, setup)
}

func (h *MFAHandler) Confirm(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, utils.CodeMissingCredentials, "missing token", nil))
		return
	}

	var req MFACodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.auth.ConfirmMFASetup(c.Request.Context(), principal.ID, req.Code); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *MFAHandler) Disable(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, utils.CodeMissingCredentials, "missing token", nil))
		return
	}

	var req MFACodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	if err := h.auth.DisableMFA(c.Request.Context(), principal.ID, req.Code); err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
