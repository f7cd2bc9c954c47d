package model

// 租户设置默认值
const (
	DefaultDashboardRefreshSeconds = 15
	DefaultCoverageAlertPct        = 80
)

// TenantSetting 租户级设置，对应 tenant_settings（每租户一行）
type TenantSetting struct {
	TenantID                string `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	DashboardRefreshSeconds int    `gorm:"not null"             json:"dashboard_refresh_seconds"` // 10~30
	CoverageAlertPct        int    `gorm:"not null"             json:"coverage_alert_pct"`        // 0~100
	BaseModel
}

// TableName 指定表名
func (TenantSetting) TableName() string { return "tenant_settings" }

// DefaultTenantSetting 返回带默认值的设置
func DefaultTenantSetting(tenantID string) *TenantSetting {
	return &TenantSetting{
		TenantID:                tenantID,
		DashboardRefreshSeconds: DefaultDashboardRefreshSeconds,
		CoverageAlertPct:        DefaultCoverageAlertPct,
	}
}
