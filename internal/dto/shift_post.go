package dto

// ── 轮班岗位模块 DTO ──

// GeneratePostsRequest 批量生成空缺岗位
type GeneratePostsRequest struct {
	InstallationID string `json:"installation_id" binding:"required,uuid"`
	RoleID         string `json:"role_id"         binding:"required,uuid"`
	Count          int    `json:"count"           binding:"required,min=1,max=50"`
}

// ShiftPostListRequest 岗位列表查询参数
type ShiftPostListRequest struct {
	InstallationID  string `form:"installation_id" binding:"omitempty,uuid"`
	RoleID          string `form:"role_id"         binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"include_inactive"`
}

// AssignPostGuardRequest 为岗位指派保安
// puesto_id 必须与路径中的岗位 ID 一致；instalacion_id / rol_id 省略时取岗位自身的值
type AssignPostGuardRequest struct {
	GuardiaID     string `json:"guardia_id"     binding:"required,uuid"`
	PuestoID      string `json:"puesto_id"      binding:"required,uuid"`
	InstalacionID string `json:"instalacion_id" binding:"omitempty,uuid"`
	RolID         string `json:"rol_id"         binding:"omitempty,uuid"`
}

// ShiftPostResponse 岗位响应
type ShiftPostResponse struct {
	ID               string  `json:"id"`
	InstallationID   string  `json:"installation_id"`
	InstallationName string  `json:"installation_name"`
	RoleID           string  `json:"role_id"`
	RoleName         string  `json:"role_name"`
	GuardID          *string `json:"guard_id"`
	GuardName        string  `json:"guard_name,omitempty"`
	IsGap            bool    `json:"is_gap"`
	Position         int     `json:"position"`
	Name             string  `json:"name"`
	IsActive         bool    `json:"is_active"`
	AssignedAt       *string `json:"assigned_at,omitempty"`
}

// AssignPostResult 指派 / 解除指派结果，附带重新编号后的同组岗位
type AssignPostResult struct {
	Success bool                `json:"success"`
	Posts   []ShiftPostResponse `json:"posts"`
}
