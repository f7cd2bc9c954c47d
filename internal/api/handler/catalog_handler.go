package handler

import (
	"github.com/gin-gonic/gin"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

// CatalogHandler 安装点 / 岗位目录 / 轮班 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
	responder
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService, r responder) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc, responder: r}
}

// ════════════════════════════════════════════════
// Installation
// ════════════════════════════════════════════════

// ListInstallations GET /api/v1/installations
func (h *CatalogHandler) ListInstallations(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CatalogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	list, total, err := h.catalogSvc.ListInstallations(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetInstallation GET /api/v1/installations/:id
func (h *CatalogHandler) GetInstallation(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	inst, err := h.catalogSvc.GetInstallation(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, inst)
}

// CreateInstallation POST /api/v1/installations
func (h *CatalogHandler) CreateInstallation(c *gin.Context) {
	var req dto.CreateInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	inst, err := h.catalogSvc.CreateInstallation(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, inst)
}

// UpdateInstallation PUT /api/v1/installations/:id
func (h *CatalogHandler) UpdateInstallation(c *gin.Context) {
	var req dto.UpdateInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	inst, err := h.catalogSvc.UpdateInstallation(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, inst)
}

// DeleteInstallation DELETE /api/v1/installations/:id
func (h *CatalogHandler) DeleteInstallation(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteInstallation(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

// ════════════════════════════════════════════════
// Post（岗位目录）
// ════════════════════════════════════════════════

// ListPosts GET /api/v1/catalog/posts
func (h *CatalogHandler) ListPosts(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CatalogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	list, total, err := h.catalogSvc.ListPosts(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetPost GET /api/v1/catalog/posts/:id
func (h *CatalogHandler) GetPost(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	post, err := h.catalogSvc.GetPost(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, post)
}

// CreatePost POST /api/v1/catalog/posts
func (h *CatalogHandler) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	post, err := h.catalogSvc.CreatePost(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, post)
}

// UpdatePost PUT /api/v1/catalog/posts/:id
func (h *CatalogHandler) UpdatePost(c *gin.Context) {
	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	post, err := h.catalogSvc.UpdatePost(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, post)
}

// DeletePost DELETE /api/v1/catalog/posts/:id
func (h *CatalogHandler) DeletePost(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeletePost(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}

// ════════════════════════════════════════════════
// ServiceRole（轮班）
// ════════════════════════════════════════════════

// ListServiceRoles GET /api/v1/service-roles
func (h *CatalogHandler) ListServiceRoles(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CatalogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badParams(c, err)
		return
	}

	list, total, err := h.catalogSvc.ListServiceRoles(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetServiceRole GET /api/v1/service-roles/:id
func (h *CatalogHandler) GetServiceRole(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	role, err := h.catalogSvc.GetServiceRole(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, role)
}

// CreateServiceRole POST /api/v1/service-roles
func (h *CatalogHandler) CreateServiceRole(c *gin.Context) {
	var req dto.CreateServiceRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	role, err := h.catalogSvc.CreateServiceRole(c.Request.Context(), actor, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, role)
}

// UpdateServiceRole PUT /api/v1/service-roles/:id
func (h *CatalogHandler) UpdateServiceRole(c *gin.Context) {
	var req dto.UpdateServiceRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badParams(c, err)
		return
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	role, err := h.catalogSvc.UpdateServiceRole(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, role)
}

// DeleteServiceRole DELETE /api/v1/service-roles/:id
func (h *CatalogHandler) DeleteServiceRole(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteServiceRole(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, nil)
}
