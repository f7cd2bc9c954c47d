package model

import (
	"time"

	"gorm.io/gorm"
)

// ShiftPost 轮班岗位（puesto operativo），对应 shift_posts
// 同一 installation+role 下的岗位按 Position 排序，Name 始终为 "Puesto #<Position>"
type ShiftPost struct {
	ShiftPostID    string     `gorm:"type:uuid;primaryKey"      json:"shift_post_id"`
	TenantID       string     `gorm:"type:uuid;not null;index"  json:"tenant_id"`
	InstallationID string     `gorm:"type:uuid;not null;index"  json:"installation_id"`
	RoleID         string     `gorm:"type:uuid;not null"        json:"role_id"`
	GuardID        *string    `gorm:"type:uuid;index"           json:"guard_id,omitempty"`
	IsGap          bool       `gorm:"not null"                  json:"is_gap"`
	Position       int        `gorm:"not null"                  json:"position"`
	Name           string     `gorm:"type:varchar(50);not null" json:"name"`
	IsActive       bool       `gorm:"not null"                  json:"is_active"`
	AssignedAt     *time.Time `json:"assigned_at,omitempty"`
	BaseModel

	// 关联
	Installation *Installation `gorm:"foreignKey:InstallationID;references:InstallationID" json:"installation,omitempty"`
	Role         *ServiceRole  `gorm:"foreignKey:RoleID;references:RoleID"                 json:"role,omitempty"`
	Guard        *Guard        `gorm:"foreignKey:GuardID;references:GuardID"               json:"guard,omitempty"`
}

// TableName 指定表名
func (ShiftPost) TableName() string { return "shift_posts" }

func (p *ShiftPost) BeforeCreate(_ *gorm.DB) error {
	p.ShiftPostID = NewID(p.ShiftPostID)
	return nil
}
