package model

import "gorm.io/gorm"

// 用户角色
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// User 后台用户表，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"           json:"user_id"`
	TenantID     string `gorm:"type:uuid;not null;index"       json:"tenant_id"`
	Email        string `gorm:"type:varchar(255);not null"     json:"email"`
	Name         string `gorm:"type:varchar(100);not null"     json:"name"`
	PasswordHash string `gorm:"type:varchar(255);not null"     json:"-"`
	Role         string `gorm:"type:varchar(20);not null"      json:"role"` // admin | operator | viewer
	IsActive     bool   `gorm:"not null"                       json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	u.UserID = NewID(u.UserID)
	return nil
}
