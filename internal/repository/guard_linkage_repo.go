package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gardops/backend/internal/model"
)

// GuardLinkageRepository 编制席位数据访问接口
type GuardLinkageRepository interface {
	Create(ctx context.Context, l *model.GuardLinkage) error
	GetByID(ctx context.Context, tenantID, id string) (*model.GuardLinkage, error)
	ListByAssignment(ctx context.Context, tenantID, assignmentID string) ([]model.GuardLinkage, error)
	Update(ctx context.Context, l *model.GuardLinkage) error
	DeleteByIDs(ctx context.Context, tenantID string, ids []string) error
	DeleteByAssignment(ctx context.Context, tenantID, assignmentID string) error

	// 统计
	CountByAssignments(ctx context.Context, tenantID string, assignmentIDs []string) (map[string]model.SlotCounts, error)
	CountAssignedActive(ctx context.Context, tenantID, installationID string) (int64, error)
}

type guardLinkageRepo struct {
	db *gorm.DB
}

// NewGuardLinkageRepo 创建 GuardLinkageRepository 实例
func NewGuardLinkageRepo(db *gorm.DB) GuardLinkageRepository {
	return &guardLinkageRepo{db: db}
}

func (r *guardLinkageRepo) Create(ctx context.Context, l *model.GuardLinkage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *guardLinkageRepo) GetByID(ctx context.Context, tenantID, id string) (*model.GuardLinkage, error) {
	var l model.GuardLinkage
	err := r.db.WithContext(ctx).
		Preload("Guard").
		Where("tenant_id = ? AND linkage_id = ?", tenantID, id).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *guardLinkageRepo) ListByAssignment(ctx context.Context, tenantID, assignmentID string) ([]model.GuardLinkage, error) {
	var list []model.GuardLinkage
	err := r.db.WithContext(ctx).
		Preload("Guard").
		Where("tenant_id = ? AND assignment_id = ?", tenantID, assignmentID).
		Order("slot_index ASC").
		Find(&list).Error
	return list, err
}

// Update 只写席位本身，不级联保存 Guard 关联
func (r *guardLinkageRepo) Update(ctx context.Context, l *model.GuardLinkage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(l).Error
}

func (r *guardLinkageRepo) DeleteByIDs(ctx context.Context, tenantID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND linkage_id IN ?", tenantID, ids).
		Delete(&model.GuardLinkage{}).Error
}

func (r *guardLinkageRepo) DeleteByAssignment(ctx context.Context, tenantID, assignmentID string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND assignment_id = ?", tenantID, assignmentID).
		Delete(&model.GuardLinkage{}).Error
}

type slotCountRow struct {
	AssignmentID string
	Status       string
	N            int64
}

// CountByAssignments 按编制统计已填/空缺席位，列表页批量使用
func (r *guardLinkageRepo) CountByAssignments(ctx context.Context, tenantID string, assignmentIDs []string) (map[string]model.SlotCounts, error) {
	result := make(map[string]model.SlotCounts, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return result, nil
	}

	var rows []slotCountRow
	err := r.db.WithContext(ctx).
		Model(&model.GuardLinkage{}).
		Select("assignment_id, status, COUNT(*) AS n").
		Where("tenant_id = ? AND assignment_id IN ?", tenantID, assignmentIDs).
		Group("assignment_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		c := result[row.AssignmentID]
		if row.Status == model.LinkageAssigned {
			c.Filled += row.N
		} else {
			c.Pending += row.N
		}
		result[row.AssignmentID] = c
	}
	return result, nil
}

// CountAssignedActive 统计生效编制下已绑定保安的席位数
func (r *guardLinkageRepo) CountAssignedActive(ctx context.Context, tenantID, installationID string) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx).
		Model(&model.GuardLinkage{}).
		Joins("JOIN assignments a ON a.assignment_id = guard_linkages.assignment_id").
		Where("guard_linkages.tenant_id = ? AND guard_linkages.status = ? AND a.state = ?",
			tenantID, model.LinkageAssigned, model.AssignmentActive)
	if installationID != "" {
		db = db.Where("a.installation_id = ?", installationID)
	}
	err := db.Count(&n).Error
	return n, err
}
