package model

import "gorm.io/gorm"

// Assignment 状态
const (
	AssignmentActive   = "active"
	AssignmentInactive = "inactive"
)

// Assignment 勤务编制（asignación operativa），对应 assignments
// 表示「某安装点的某岗位在某轮班下需要 RequiredGuards 名保安」
type Assignment struct {
	AssignmentID   string `gorm:"type:uuid;primaryKey"      json:"assignment_id"`
	TenantID       string `gorm:"type:uuid;not null;index"  json:"tenant_id"`
	InstallationID string `gorm:"type:uuid;not null;index"  json:"installation_id"`
	PostID         string `gorm:"type:uuid;not null"        json:"post_id"`
	RoleID         string `gorm:"type:uuid;not null"        json:"role_id"`
	RequiredGuards int    `gorm:"not null"                  json:"required_guards"` // cantidad_guardias，≥1
	State          string `gorm:"type:varchar(20);not null" json:"state"`           // active | inactive
	BaseModel

	// 关联
	Installation *Installation  `gorm:"foreignKey:InstallationID;references:InstallationID" json:"installation,omitempty"`
	Post         *Post          `gorm:"foreignKey:PostID;references:PostID"                 json:"post,omitempty"`
	Role         *ServiceRole   `gorm:"foreignKey:RoleID;references:RoleID"                 json:"role,omitempty"`
	Slots        []GuardLinkage `gorm:"foreignKey:AssignmentID;references:AssignmentID"     json:"slots,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

func (a *Assignment) BeforeCreate(_ *gorm.DB) error {
	a.AssignmentID = NewID(a.AssignmentID)
	return nil
}
