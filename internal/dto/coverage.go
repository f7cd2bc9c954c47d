package dto

// ── PPC 模块 DTO ──

// GapListRequest PPC 列表查询参数，日期按创建时间过滤（含首尾）
type GapListRequest struct {
	PaginationRequest
	InstallationID string `form:"installation_id" binding:"omitempty,uuid"`
	Status         string `form:"status"          binding:"omitempty,oneof=pendiente cubierto justificado"`
	DateFrom       string `form:"date_from"       binding:"omitempty,datetime=2006-01-02"`
	DateTo         string `form:"date_to"         binding:"omitempty,datetime=2006-01-02"`
}

// UpdateGapRequest 手动编辑 PPC
type UpdateGapRequest struct {
	Status *string `json:"status" binding:"omitempty,oneof=pendiente cubierto justificado"`
	Notes  *string `json:"notes"  binding:"omitempty,max=2000"`
}

// ResolveGapRequest 为 PPC 指派保安
type ResolveGapRequest struct {
	GuardID string `json:"guard_id" binding:"required,uuid"`
}

// GapResponse PPC 响应，名称每次读取时从目录联查
type GapResponse struct {
	ID               string  `json:"id"`
	AssignmentID     string  `json:"assignment_id"`
	InstallationID   string  `json:"installation_id"`
	InstallationName string  `json:"installation_name"`
	PostID           string  `json:"post_id"`
	PostName         string  `json:"post_name"`
	RoleID           string  `json:"role_id"`
	RoleName         string  `json:"role_name"`
	SlotIndex        int     `json:"slot_index"`
	GuardLinkageID   *string `json:"guard_linkage_id"`
	GuardName        string  `json:"guard_name,omitempty"`
	Status           string  `json:"status"`
	Notes            string  `json:"notes,omitempty"`
	CreatedAt        string  `json:"created_at"`
	ResolvedAt       *string `json:"resolved_at,omitempty"`
}
