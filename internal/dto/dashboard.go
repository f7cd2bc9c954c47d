package dto

// ── 监控看板 / 租户设置 / 操作日志 DTO ──

// DashboardRequest 看板查询参数
type DashboardRequest struct {
	InstallationID string `form:"installation_id" binding:"omitempty,uuid"`
}

// KPIResponse 看板指标
type KPIResponse struct {
	ActiveAssignments int64   `json:"active_assignments"`
	RequiredSlots     int64   `json:"required_slots"`
	FilledSlots       int64   `json:"filled_slots"`
	PendingGaps       int64   `json:"pending_gaps"`
	CoveredGaps       int64   `json:"covered_gaps"`
	JustifiedGaps     int64   `json:"justified_gaps"`
	ShiftPostsTotal   int64   `json:"shift_posts_total"`
	ShiftPostsFilled  int64   `json:"shift_posts_filled"`
	CoveragePct       float64 `json:"coverage_pct"`
	AlertThresholdPct int     `json:"alert_threshold_pct"`
	Alert             bool    `json:"alert"`
	RefreshSeconds    int     `json:"refresh_seconds"`
	GeneratedAt       string  `json:"generated_at"`
}

// UpdateSettingsRequest 更新租户设置
type UpdateSettingsRequest struct {
	DashboardRefreshSeconds *int `json:"dashboard_refresh_seconds" binding:"omitempty,min=10,max=30"`
	CoverageAlertPct        *int `json:"coverage_alert_pct"        binding:"omitempty,min=0,max=100"`
}

// SettingsResponse 租户设置响应
type SettingsResponse struct {
	DashboardRefreshSeconds int    `json:"dashboard_refresh_seconds"`
	CoverageAlertPct        int    `json:"coverage_alert_pct"`
	UpdatedAt               string `json:"updated_at"`
}

// ActivityListRequest 操作日志查询参数
type ActivityListRequest struct {
	PaginationRequest
	Entity   string `form:"entity"    binding:"omitempty,oneof=assignment coverage_gap shift_post guard_linkage"`
	EntityID string `form:"entity_id" binding:"omitempty,uuid"`
}

// ActivityResponse 操作日志响应
type ActivityResponse struct {
	ID        string      `json:"id"`
	ActorID   string      `json:"actor_id"`
	Entity    string      `json:"entity"`
	EntityID  string      `json:"entity_id"`
	Action    string      `json:"action"`
	Detail    interface{} `json:"detail,omitempty"`
	CreatedAt string      `json:"created_at"`
}
