package handler

import (
	"github.com/gin-gonic/gin"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

// ShiftPostHandler 轮班岗位 HTTP 处理器
type ShiftPostHandler struct {
	postSvc service.ShiftPostService
	responder
}

// NewShiftPostHandler 创建 ShiftPostHandler
func NewShiftPostHandler(postSvc service.ShiftPostService, r responder) *ShiftPostHandler {
	return &ShiftPostHandler{postSvc: postSvc, responder: r}
}

// ListPosts GET /api/v1/posts?installation_id=&role_id=
func (h *ShiftPostHandler) ListPosts(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ShiftPostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	posts, err := h.postSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"list": posts})
}

// GeneratePosts 追加空缺岗位
// POST /api/v1/posts/generate
func (h *ShiftPostHandler) GeneratePosts(c *gin.Context) {
	var req dto.GeneratePostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	posts, err := h.postSvc.Generate(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, gin.H{"list": posts})
}

// AssignGuard 保安上岗并重新编号，失败时整组不变
// POST /api/v1/posts/:id/assign-guard
func (h *ShiftPostHandler) AssignGuard(c *gin.Context) {
	var req dto.AssignPostGuardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.postSvc.AssignGuard(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, result)
}

// UnassignGuard 保安下岗，岗位回到空缺
// POST /api/v1/posts/:id/unassign-guard
func (h *ShiftPostHandler) UnassignGuard(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.postSvc.UnassignGuard(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, result)
}
