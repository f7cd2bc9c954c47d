package dto

// ── 勤务编制模块 DTO ──

// CreateAssignmentRequest 创建编制请求
// Guards 按席位顺序给出保安 ID，空串表示该席位暂缺；长度不得超过 RequiredGuards
type CreateAssignmentRequest struct {
	InstallationID string   `json:"installation_id" binding:"required,uuid"`
	PostID         string   `json:"post_id"         binding:"required,uuid"`
	RoleID         string   `json:"role_id"         binding:"required,uuid"`
	RequiredGuards int      `json:"required_guards" binding:"required,min=1,max=200"`
	State          string   `json:"state"           binding:"omitempty,oneof=active inactive"`
	Guards         []string `json:"guards"          binding:"omitempty,max=200,dive,omitempty,uuid"`
}

// UpdateAssignmentRequest 更新编制请求（部分更新）
// Guards 为 nil 表示不改动席位；传入时整体替换席位选择
type UpdateAssignmentRequest struct {
	InstallationID *string   `json:"installation_id" binding:"omitempty,uuid"`
	PostID         *string   `json:"post_id"         binding:"omitempty,uuid"`
	RoleID         *string   `json:"role_id"         binding:"omitempty,uuid"`
	RequiredGuards *int      `json:"required_guards" binding:"omitempty,min=1,max=200"`
	State          *string   `json:"state"           binding:"omitempty,oneof=active inactive"`
	Guards         *[]string `json:"guards"          binding:"omitempty,max=200,dive,omitempty,uuid"`
}

// AssignmentListRequest 编制列表查询参数
type AssignmentListRequest struct {
	PaginationRequest
	InstallationID string `form:"installation_id" binding:"omitempty,uuid"`
	ShowInactive   bool   `form:"show_inactive"`
}

// AssignmentResponse 编制响应，目录名称缺失时为 "Sin asignar"
type AssignmentResponse struct {
	ID               string         `json:"id"`
	InstallationID   string         `json:"installation_id"`
	InstallationName string         `json:"installation_name"`
	PostID           string         `json:"post_id"`
	PostName         string         `json:"post_name"`
	RoleID           string         `json:"role_id"`
	RoleName         string         `json:"role_name"`
	RequiredGuards   int            `json:"required_guards"`
	State            string         `json:"state"`
	FilledSlots      int64          `json:"filled_slots"`
	PendingSlots     int64          `json:"pending_slots"`
	Slots            []SlotResponse `json:"slots,omitempty"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

// ── 席位（Guard Linkage）──

// SlotResponse 席位响应
type SlotResponse struct {
	ID           string  `json:"id"`
	AssignmentID string  `json:"assignment_id"`
	SlotIndex    int     `json:"slot_index"`
	GuardID      *string `json:"guard_id"`
	GuardName    string  `json:"guard_name,omitempty"`
	Status       string  `json:"status"`
	AssignedDate string  `json:"assigned_date,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// LinkageListRequest 席位列表查询参数
type LinkageListRequest struct {
	AssignmentID string `form:"assignment_id" binding:"required,uuid"`
}

// BindSlotRequest 将保安绑定到编制的空缺席位
type BindSlotRequest struct {
	AssignmentID string `json:"assignment_id" binding:"required,uuid"`
	SlotIndex    *int   `json:"slot_index"    binding:"required,min=0"`
	GuardID      string `json:"guard_id"      binding:"required,uuid"`
	Notes        string `json:"notes"         binding:"omitempty,max=500"`
}
