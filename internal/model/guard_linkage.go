package model

import (
	"time"

	"gorm.io/gorm"
)

// GuardLinkage 状态
const (
	LinkageAssigned = "assigned"
	LinkagePending  = "pending"
)

// GuardLinkage 编制席位（guardia asignado），对应 guard_linkages
// 每个 Assignment 恰有 RequiredGuards 行，SlotIndex 取 0..N-1；
// GuardID 为空表示空缺（status=pending），非空时 status=assigned。
type GuardLinkage struct {
	LinkageID    string     `gorm:"type:uuid;primaryKey"      json:"linkage_id"`
	TenantID     string     `gorm:"type:uuid;not null;index"  json:"tenant_id"`
	AssignmentID string     `gorm:"type:uuid;not null;index"  json:"assignment_id"`
	SlotIndex    int        `gorm:"not null"                  json:"slot_index"`
	GuardID      *string    `gorm:"type:uuid;index"           json:"guard_id,omitempty"`
	Status       string     `gorm:"type:varchar(20);not null" json:"status"` // assigned | pending
	AssignedDate *time.Time `gorm:"type:date"                 json:"assigned_date,omitempty"`
	Notes        string     `gorm:"type:text"                 json:"notes,omitempty"`
	BaseModel

	// 关联
	Guard *Guard `gorm:"foreignKey:GuardID;references:GuardID" json:"guard,omitempty"`
}

// TableName 指定表名
func (GuardLinkage) TableName() string { return "guard_linkages" }

func (l *GuardLinkage) BeforeCreate(_ *gorm.DB) error {
	l.LinkageID = NewID(l.LinkageID)
	return nil
}

// BoundGuard 返回席位绑定的保安 ID，空缺时为空串
func (l *GuardLinkage) BoundGuard() string {
	if l.GuardID == nil {
		return ""
	}
	return *l.GuardID
}

// SlotCounts 某 Assignment 的席位统计
type SlotCounts struct {
	Filled  int64
	Pending int64
}
