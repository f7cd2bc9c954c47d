package handler

import (
	"github.com/gin-gonic/gin"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

// ActivityHandler 操作日志 HTTP 处理器
type ActivityHandler struct {
	activitySvc service.ActivityService
	responder
}

// NewActivityHandler 创建 ActivityHandler
func NewActivityHandler(activitySvc service.ActivityService, r responder) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc, responder: r}
}

// ListActivity GET /api/v1/activity?entity=&entity_id=
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	list, total, err := h.activitySvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}
