package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/realtime"
	"github.com/hi-deen/PharmaTrack/internal/utils"
)

type EventsHandler struct {
	hub *realtime.Hub
}

func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream serves the live activity feed of one department as server-sent
// events. The handshake runs behind the same full-token middleware as the
// rest of the protected surface.
func (h *EventsHandler) Stream(c *gin.Context) {
	departmentID := c.Query("department")
	if departmentID == "" {
		utils.RespondValidationError(c, "department query parameter required")
		return
	}

	events, cancel := h.hub.Subscribe(realtime.DepartmentRoom(departmentID))
	defer cancel()

	c.Header("Cache-Control", "no-store")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
