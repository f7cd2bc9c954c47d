package dto

// ── 目录模块 DTO（安装点 / 岗位 / 轮班 / 保安）──

// CatalogListRequest 目录列表查询参数
type CatalogListRequest struct {
	PaginationRequest
	IncludeInactive bool   `form:"include_inactive"`
	Q               string `form:"q" binding:"omitempty,max=100"` // 仅保安列表使用
}

// ── Installation ──

// CreateInstallationRequest 创建安装点请求
type CreateInstallationRequest struct {
	Name       string `json:"name"        binding:"required,min=2,max=150"`
	ClientName string `json:"client_name" binding:"omitempty,max=150"`
	Address    string `json:"address"     binding:"omitempty,max=255"`
	Commune    string `json:"commune"     binding:"omitempty,max=100"`
}

// UpdateInstallationRequest 更新安装点请求
type UpdateInstallationRequest struct {
	Name       *string `json:"name"        binding:"omitempty,min=2,max=150"`
	ClientName *string `json:"client_name" binding:"omitempty,max=150"`
	Address    *string `json:"address"     binding:"omitempty,max=255"`
	Commune    *string `json:"commune"     binding:"omitempty,max=100"`
	IsActive   *bool   `json:"is_active"`
}

// InstallationResponse 安装点响应
type InstallationResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ClientName string `json:"client_name,omitempty"`
	Address    string `json:"address,omitempty"`
	Commune    string `json:"commune,omitempty"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// ── Post ──

// CreatePostRequest 创建岗位目录请求
type CreatePostRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=150"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdatePostRequest 更新岗位目录请求
type UpdatePostRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=150"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// PostResponse 岗位目录响应
type PostResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ── ServiceRole ──

// CreateServiceRoleRequest 创建轮班请求
type CreateServiceRoleRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	WorkDays  int    `json:"work_days"  binding:"required,min=1,max=31"`
	RestDays  int    `json:"rest_days"  binding:"min=0,max=31"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time"   binding:"required,hhmm"`
}

// UpdateServiceRoleRequest 更新轮班请求
type UpdateServiceRoleRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=100"`
	WorkDays  *int    `json:"work_days"  binding:"omitempty,min=1,max=31"`
	RestDays  *int    `json:"rest_days"  binding:"omitempty,min=0,max=31"`
	StartTime *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string `json:"end_time"   binding:"omitempty,hhmm"`
	IsActive  *bool   `json:"is_active"`
}

// ServiceRoleResponse 轮班响应
type ServiceRoleResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WorkDays  int    `json:"work_days"`
	RestDays  int    `json:"rest_days"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ── Guard ──

// CreateGuardRequest 创建保安请求
type CreateGuardRequest struct {
	RUT       string `json:"rut"        binding:"required,rut"`
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name"  binding:"required,min=1,max=100"`
	Phone     string `json:"phone"      binding:"omitempty,max=30"`
	Email     string `json:"email"      binding:"omitempty,email"`
}

// UpdateGuardRequest 更新保安请求
type UpdateGuardRequest struct {
	RUT       *string `json:"rut"        binding:"omitempty,rut"`
	FirstName *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name"  binding:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone"      binding:"omitempty,max=30"`
	Email     *string `json:"email"      binding:"omitempty,email"`
	IsActive  *bool   `json:"is_active"`
}

// GuardResponse 保安响应
type GuardResponse struct {
	ID        string `json:"id"`
	RUT       string `json:"rut"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// GuardCalendarRequest 保安排班日历导出参数
type GuardCalendarRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	Days int    `form:"days" binding:"omitempty,min=1,max=62"`
}
