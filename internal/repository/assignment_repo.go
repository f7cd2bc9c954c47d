package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gardops/backend/internal/model"
)

// AssignmentFilter 编制列表条件
type AssignmentFilter struct {
	InstallationID  string
	IncludeInactive bool
	Offset          int
	Limit           int
}

// AssignmentRepository 勤务编制数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Assignment, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.Assignment, error)
	List(ctx context.Context, tenantID string, f AssignmentFilter) ([]model.Assignment, int64, error)
	Update(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, tenantID, id string) error

	// 看板统计
	CountActive(ctx context.Context, tenantID, installationID string) (int64, error)
	SumRequiredActive(ctx context.Context, tenantID, installationID string) (int64, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, a *model.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

// GetByID 预加载目录关联与按 slot_index 排序的席位
func (r *assignmentRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Installation").
		Preload("Post").
		Preload("Role").
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("slot_index ASC")
		}).
		Preload("Slots.Guard").
		Where("tenant_id = ? AND assignment_id = ?", tenantID, id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByIDForUpdate 在事务中锁定编制行（SQLite 忽略行锁）
func (r *assignmentRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND assignment_id = ?", tenantID, id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) List(ctx context.Context, tenantID string, f AssignmentFilter) ([]model.Assignment, int64, error) {
	var list []model.Assignment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Assignment{}).Where("tenant_id = ?", tenantID)
	if f.InstallationID != "" {
		db = db.Where("installation_id = ?", f.InstallationID)
	}
	if !f.IncludeInactive {
		db = db.Where("state = ?", model.AssignmentActive)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Session(&gorm.Session{}).
		Preload("Installation").
		Preload("Post").
		Preload("Role").
		Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *assignmentRepo) Update(ctx context.Context, a *model.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(a).Error
}

// Delete 物理删除，席位与 PPC 由 Service 在同一事务中清理
func (r *assignmentRepo) Delete(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND assignment_id = ?", tenantID, id).
		Delete(&model.Assignment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepo) activeScope(ctx context.Context, tenantID, installationID string) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("tenant_id = ? AND state = ?", tenantID, model.AssignmentActive)
	if installationID != "" {
		db = db.Where("installation_id = ?", installationID)
	}
	return db
}

func (r *assignmentRepo) CountActive(ctx context.Context, tenantID, installationID string) (int64, error) {
	var n int64
	err := r.activeScope(ctx, tenantID, installationID).Count(&n).Error
	return n, err
}

func (r *assignmentRepo) SumRequiredActive(ctx context.Context, tenantID, installationID string) (int64, error) {
	var sum int64
	err := r.activeScope(ctx, tenantID, installationID).
		Select("COALESCE(SUM(required_guards), 0)").
		Scan(&sum).Error
	return sum, err
}
