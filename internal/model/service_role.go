package model

import "gorm.io/gorm"

// ServiceRole 勤务轮班（rol de servicio / turno），对应 service_roles
// 以 WorkDays 天上班、RestDays 天休息循环，每个工作日 StartTime~EndTime
type ServiceRole struct {
	RoleID    string `gorm:"type:uuid;primaryKey"       json:"role_id"`
	TenantID  string `gorm:"type:uuid;not null;index"   json:"tenant_id"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	WorkDays  int    `gorm:"type:smallint;not null"     json:"work_days"`
	RestDays  int    `gorm:"type:smallint;not null"     json:"rest_days"`
	StartTime string `gorm:"type:varchar(5);not null"   json:"start_time"` // HH:MM
	EndTime   string `gorm:"type:varchar(5);not null"   json:"end_time"`   // HH:MM，早于 StartTime 表示跨夜
	IsActive  bool   `gorm:"not null"                   json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (ServiceRole) TableName() string { return "service_roles" }

func (r *ServiceRole) BeforeCreate(_ *gorm.DB) error {
	r.RoleID = NewID(r.RoleID)
	return nil
}
