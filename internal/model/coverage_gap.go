package model

import (
	"time"

	"gorm.io/gorm"
)

// CoverageGap 状态
const (
	GapPending   = "pendiente"
	GapCovered   = "cubierto"
	GapJustified = "justificado"
)

// ValidGapStatus 校验 PPC 状态取值
func ValidGapStatus(s string) bool {
	switch s {
	case GapPending, GapCovered, GapJustified:
		return true
	}
	return false
}

// CoverageGap 待补岗位（PPC），对应 coverage_gaps
// InstallationID/PostID/RoleID 冗余自所属 Assignment；未关闭的 PPC 随 Assignment 变更同步，已关闭的保留快照。
type CoverageGap struct {
	GapID          string     `gorm:"type:uuid;primaryKey"      json:"gap_id"`
	TenantID       string     `gorm:"type:uuid;not null;index"  json:"tenant_id"`
	AssignmentID   string     `gorm:"type:uuid;not null;index"  json:"assignment_id"`
	InstallationID string     `gorm:"type:uuid;not null;index"  json:"installation_id"`
	PostID         string     `gorm:"type:uuid;not null"        json:"post_id"`
	RoleID         string     `gorm:"type:uuid;not null"        json:"role_id"`
	SlotIndex      int        `gorm:"not null"                  json:"slot_index"`
	GuardLinkageID *string    `gorm:"type:uuid"                 json:"guard_linkage_id,omitempty"`
	Status         string     `gorm:"type:varchar(20);not null" json:"status"` // pendiente | cubierto | justificado
	Notes          string     `gorm:"type:text"                 json:"notes,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	BaseModel

	// 关联
	Installation *Installation `gorm:"foreignKey:InstallationID;references:InstallationID" json:"installation,omitempty"`
	Post         *Post         `gorm:"foreignKey:PostID;references:PostID"                 json:"post,omitempty"`
	Role         *ServiceRole  `gorm:"foreignKey:RoleID;references:RoleID"                 json:"role,omitempty"`
	GuardLinkage *GuardLinkage `gorm:"foreignKey:GuardLinkageID;references:LinkageID"      json:"guard_linkage,omitempty"`
}

// TableName 指定表名
func (CoverageGap) TableName() string { return "coverage_gaps" }

func (g *CoverageGap) BeforeCreate(_ *gorm.DB) error {
	g.GapID = NewID(g.GapID)
	return nil
}

// AppendNote 追加一行备注
func (g *CoverageGap) AppendNote(line string) {
	if g.Notes == "" {
		g.Notes = line
		return
	}
	g.Notes += "\n" + line
}
