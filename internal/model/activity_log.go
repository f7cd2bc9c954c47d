package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog 业务操作日志，对应 activity_logs（纯审计，随业务事务写入）
type ActivityLog struct {
	ActivityID string         `gorm:"type:uuid;primaryKey"          json:"activity_id"`
	TenantID   string         `gorm:"type:uuid;not null;index"      json:"tenant_id"`
	ActorID    string         `gorm:"type:uuid;not null"            json:"actor_id"`
	Entity     string         `gorm:"type:varchar(40);not null"     json:"entity"` // assignment | coverage_gap | shift_post
	EntityID   string         `gorm:"type:uuid;not null;index"      json:"entity_id"`
	Action     string         `gorm:"type:varchar(40);not null"     json:"action"`
	Detail     datatypes.JSON `gorm:"type:jsonb"                    json:"detail,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (ActivityLog) TableName() string { return "activity_logs" }

func (a *ActivityLog) BeforeCreate(_ *gorm.DB) error {
	a.ActivityID = NewID(a.ActivityID)
	return nil
}
