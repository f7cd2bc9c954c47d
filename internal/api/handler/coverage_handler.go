package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CoverageHandler PPC 模块 HTTP 处理器
type CoverageHandler struct {
	coverageSvc service.CoverageService
	responder
}

// NewCoverageHandler 创建 CoverageHandler
func NewCoverageHandler(coverageSvc service.CoverageService, r responder) *CoverageHandler {
	return &CoverageHandler{coverageSvc: coverageSvc, responder: r}
}

// ListGaps GET /api/v1/coverage-gaps?installation_id=&status=&date_from=&date_to=
func (h *CoverageHandler) ListGaps(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.GapListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	list, total, err := h.coverageSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetGap GET /api/v1/coverage-gaps/:id
func (h *CoverageHandler) GetGap(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	gap, err := h.coverageSvc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gap)
}

// UpdateGap 手动修改状态或备注
// PUT /api/v1/coverage-gaps/:id
func (h *CoverageHandler) UpdateGap(c *gin.Context) {
	var req dto.UpdateGapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	gap, err := h.coverageSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gap)
}

// AssignGuard 指派保安补岗，PPC 转为 cubierto
// POST /api/v1/coverage-gaps/:id/assign-guard
func (h *CoverageHandler) AssignGuard(c *gin.Context) {
	var req dto.ResolveGapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	gap, err := h.coverageSvc.AssignGuard(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gap)
}

// ExportGaps 按列表筛选条件导出 Excel
// GET /api/v1/coverage-gaps/export
func (h *CoverageHandler) ExportGaps(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.GapListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	body, filename, err := h.coverageSvc.Export(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, body)
}
