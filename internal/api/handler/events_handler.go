package handler

import (
	"github.com/gin-gonic/gin"

	"gardops/backend/internal/realtime"
)

// EventsHandler 变更提示 SSE
type EventsHandler struct {
	hub *realtime.Hub
}

// NewEventsHandler 创建 EventsHandler
func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream 订阅当前租户的变更提示，断开时自动退订
// GET /api/v1/events
func (h *EventsHandler) Stream(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	client := h.hub.Subscribe(actor.TenantID, actor.UserID)
	defer h.hub.Unsubscribe(client)

	h.hub.Stream(c.Writer, c.Request, client)
}
