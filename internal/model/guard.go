package model

import "gorm.io/gorm"

// Guard 保安人员（guardia），对应 guards
type Guard struct {
	GuardID    string `gorm:"type:uuid;primaryKey"          json:"guard_id"`
	TenantID   string `gorm:"type:uuid;not null;index"      json:"tenant_id"`
	RUT        string `gorm:"column:rut;type:varchar(12);not null" json:"rut"`
	FirstName  string `gorm:"type:varchar(100);not null"    json:"first_name"`
	LastName   string `gorm:"type:varchar(100);not null"    json:"last_name"`
	Phone      string `gorm:"type:varchar(30)"              json:"phone,omitempty"`
	Email      string `gorm:"type:varchar(255)"             json:"email,omitempty"`
	IsActive   bool   `gorm:"not null"                      json:"is_active"`
	SearchName string `gorm:"type:varchar(255);not null;index" json:"-"` // 去重音小写 "nombre apellido rut"，由 Service 维护
	SoftDeleteModel
}

// TableName 指定表名
func (Guard) TableName() string { return "guards" }

func (g *Guard) BeforeCreate(_ *gorm.DB) error {
	g.GuardID = NewID(g.GuardID)
	return nil
}

// FullName 显示用姓名
func (g *Guard) FullName() string {
	if g.LastName == "" {
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}
