package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/http/middleware"
	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/services"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

type MeHandler struct {
	auth *services.AuthService
}

func NewMeHandler(auth *services.AuthService) *MeHandler {
	return &MeHandler{auth: auth}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, utils.NewAppError(http.StatusUnauthorized, utils.CodeMissingCredentials, "missing token", nil))
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), principal.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, publicUser(user))
}

// publicUser is the only user shape that leaves this API; the hash and
// MFA material never do.
func publicUser(user *models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	}
}
