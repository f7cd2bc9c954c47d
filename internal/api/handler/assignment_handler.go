package handler

import (
	"github.com/gin-gonic/gin"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

// AssignmentHandler 编制模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
	responder
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService, r responder) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc, responder: r}
}

// ListAssignments 编制列表，带安装点 / 岗位 / 轮班名称与席位统计
// GET /api/v1/assignments?installation_id=&show_inactive=
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.AssignmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	list, total, err := h.assignmentSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetAssignment 编制详情（含有序席位）
// GET /api/v1/assignments/:id
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	a, err := h.assignmentSvc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, a)
}

// CreateAssignment 创建编制，同一事务内生成席位与 PPC
// POST /api/v1/assignments
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, a)
}

// UpdateAssignment 部分更新；提供 guards 或人数变化时重新对账席位
// PUT /api/v1/assignments/:id
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	a, err := h.assignmentSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, a)
}

// DeleteAssignment 删除编制及其席位与 PPC
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if err := h.assignmentSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}
