package model

import "gorm.io/gorm"

// Installation 客户安装点（instalación），对应 installations
type Installation struct {
	InstallationID string `gorm:"type:uuid;primaryKey"       json:"installation_id"`
	TenantID       string `gorm:"type:uuid;not null;index"   json:"tenant_id"`
	Name           string `gorm:"type:varchar(150);not null" json:"name"`
	ClientName     string `gorm:"type:varchar(150)"          json:"client_name,omitempty"`
	Address        string `gorm:"type:varchar(255)"          json:"address,omitempty"`
	Commune        string `gorm:"type:varchar(100)"          json:"commune,omitempty"`
	IsActive       bool   `gorm:"not null"                   json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Installation) TableName() string { return "installations" }

func (i *Installation) BeforeCreate(_ *gorm.DB) error {
	i.InstallationID = NewID(i.InstallationID)
	return nil
}
