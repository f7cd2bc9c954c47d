package handler

import (
	"github.com/gin-gonic/gin"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

// GuardLinkageHandler 席位 HTTP 处理器
type GuardLinkageHandler struct {
	linkageSvc service.GuardLinkageService
	responder
}

// NewGuardLinkageHandler 创建 GuardLinkageHandler
func NewGuardLinkageHandler(linkageSvc service.GuardLinkageService, r responder) *GuardLinkageHandler {
	return &GuardLinkageHandler{linkageSvc: linkageSvc, responder: r}
}

// ListSlots GET /api/v1/guard-linkages?assignment_id=
func (h *GuardLinkageHandler) ListSlots(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.LinkageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	slots, err := h.linkageSvc.List(c.Request.Context(), actor, req.AssignmentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"list": slots})
}

// BindSlot 为空缺席位指派保安
// POST /api/v1/guard-linkages
func (h *GuardLinkageHandler) BindSlot(c *gin.Context) {
	var req dto.BindSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	slot, err := h.linkageSvc.Bind(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, slot)
}

// ReleaseSlot 释放席位，行保留，席位回到空缺
// DELETE /api/v1/guard-linkages/:id
func (h *GuardLinkageHandler) ReleaseSlot(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	slot, err := h.linkageSvc.Release(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, slot)
}
