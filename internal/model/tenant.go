package model

import "gorm.io/gorm"

// Tenant 租户表，对应 tenants（一家安保公司一行）
type Tenant struct {
	TenantID string `gorm:"type:uuid;primaryKey"       json:"tenant_id"`
	Name     string `gorm:"type:varchar(150);not null" json:"name"`
	IsActive bool   `gorm:"not null"                   json:"is_active"`
	BaseModel
}

func (Tenant) TableName() string { return "tenants" }

func (t *Tenant) BeforeCreate(_ *gorm.DB) error {
	t.TenantID = NewID(t.TenantID)
	return nil
}
