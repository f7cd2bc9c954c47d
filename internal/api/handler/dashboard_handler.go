package handler

import (
	"github.com/gin-gonic/gin"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

// DashboardHandler 看板与租户设置 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
	settingsSvc  service.SettingsService
	responder
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService, settingsSvc service.SettingsService, r responder) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc, settingsSvc: settingsSvc, responder: r}
}

// KPIs GET /api/v1/dashboard/kpis?installation_id=
func (h *DashboardHandler) KPIs(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	kpi, err := h.dashboardSvc.KPIs(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, kpi)
}

// GetSettings GET /api/v1/settings
func (h *DashboardHandler) GetSettings(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	settings, err := h.settingsSvc.Get(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, settings)
}

// UpdateSettings PUT /api/v1/settings
func (h *DashboardHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	settings, err := h.settingsSvc.Update(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, settings)
}
