package model

import "gorm.io/gorm"

// Post 岗位目录（puesto），对应 posts，被 Assignment 引用
type Post struct {
	PostID      string `gorm:"type:uuid;primaryKey"       json:"post_id"`
	TenantID    string `gorm:"type:uuid;not null;index"   json:"tenant_id"`
	Name        string `gorm:"type:varchar(150);not null" json:"name"`
	Description string `gorm:"type:varchar(500)"          json:"description,omitempty"`
	IsActive    bool   `gorm:"not null"                   json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Post) TableName() string { return "posts" }

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	p.PostID = NewID(p.PostID)
	return nil
}
