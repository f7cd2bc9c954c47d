package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

// GuardHandler 保安模块 HTTP 处理器
type GuardHandler struct {
	guardSvc service.GuardService
	responder
}

// NewGuardHandler 创建 GuardHandler
func NewGuardHandler(guardSvc service.GuardService, r responder) *GuardHandler {
	return &GuardHandler{guardSvc: guardSvc, responder: r}
}

// ListGuards 保安列表，q 忽略大小写与重音
// GET /api/v1/guards?q=&include_inactive=
func (h *GuardHandler) ListGuards(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CatalogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	list, total, err := h.guardSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetGuard GET /api/v1/guards/:id
func (h *GuardHandler) GetGuard(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	guard, err := h.guardSvc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, guard)
}

// CreateGuard POST /api/v1/guards
func (h *GuardHandler) CreateGuard(c *gin.Context) {
	var req dto.CreateGuardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	guard, err := h.guardSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, guard)
}

// UpdateGuard PUT /api/v1/guards/:id
func (h *GuardHandler) UpdateGuard(c *gin.Context) {
	var req dto.UpdateGuardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	guard, err := h.guardSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, guard)
}

// DeleteGuard DELETE /api/v1/guards/:id
func (h *GuardHandler) DeleteGuard(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if err := h.guardSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

// Calendar 导出保安轮班日历
// GET /api/v1/guards/:id/calendar.ics?from=&days=
func (h *GuardHandler) Calendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.GuardCalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	body, filename, err := h.guardSvc.Calendar(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}
