package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"gardops/backend/internal/service"
	"gardops/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetActor 提取当前操作者（用户、租户、角色）
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := mustGetString(c, "user_id")
	if !ok {
		return service.Actor{}, false
	}
	tenantID, ok := mustGetString(c, "tenant_id")
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		UserID:   userID,
		TenantID: tenantID,
		Role:     c.GetString("role"),
	}, true
}

// tokenInfo 当前 Access Token 的 jti 与过期时间，登出时使用
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return jti, t
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}
