package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gardops/backend/internal/model"
)

// GapFilter PPC 列表条件，CreatedFrom 含、CreatedTo 不含
type GapFilter struct {
	InstallationID string
	Status         string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Offset         int
	Limit          int
}

// CoverageGapRepository PPC 数据访问接口
type CoverageGapRepository interface {
	Create(ctx context.Context, gap *model.CoverageGap) error
	GetByID(ctx context.Context, tenantID, id string) (*model.CoverageGap, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.CoverageGap, error)
	List(ctx context.Context, tenantID string, f GapFilter) ([]model.CoverageGap, int64, error)
	ListOpenByAssignment(ctx context.Context, tenantID, assignmentID string) ([]model.CoverageGap, error)
	Update(ctx context.Context, gap *model.CoverageGap) error
	SyncOpenParents(ctx context.Context, a *model.Assignment) error
	DeleteByAssignment(ctx context.Context, tenantID, assignmentID string) error
	CountByStatus(ctx context.Context, tenantID, installationID string) (map[string]int64, error)
}

type coverageGapRepo struct {
	db *gorm.DB
}

// NewCoverageGapRepo 创建 CoverageGapRepository 实例
func NewCoverageGapRepo(db *gorm.DB) CoverageGapRepository {
	return &coverageGapRepo{db: db}
}

func (r *coverageGapRepo) Create(ctx context.Context, gap *model.CoverageGap) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(gap).Error
}

func (r *coverageGapRepo) withNames(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Installation").
		Preload("Post").
		Preload("Role").
		Preload("GuardLinkage").
		Preload("GuardLinkage.Guard")
}

func (r *coverageGapRepo) GetByID(ctx context.Context, tenantID, id string) (*model.CoverageGap, error) {
	var gap model.CoverageGap
	err := r.withNames(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND gap_id = ?", tenantID, id).
		First(&gap).Error
	if err != nil {
		return nil, err
	}
	return &gap, nil
}

func (r *coverageGapRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.CoverageGap, error) {
	var gap model.CoverageGap
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND gap_id = ?", tenantID, id).
		First(&gap).Error
	if err != nil {
		return nil, err
	}
	return &gap, nil
}

func (r *coverageGapRepo) List(ctx context.Context, tenantID string, f GapFilter) ([]model.CoverageGap, int64, error) {
	var list []model.CoverageGap
	var total int64

	db := r.db.WithContext(ctx).Model(&model.CoverageGap{}).Where("tenant_id = ?", tenantID)
	if f.InstallationID != "" {
		db = db.Where("installation_id = ?", f.InstallationID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.CreatedFrom != nil {
		db = db.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		db = db.Where("created_at < ?", *f.CreatedTo)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.withNames(db.Session(&gorm.Session{})).Order("created_at DESC, slot_index ASC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListOpenByAssignment 编制下所有 pendiente 状态的 PPC
func (r *coverageGapRepo) ListOpenByAssignment(ctx context.Context, tenantID, assignmentID string) ([]model.CoverageGap, error) {
	var list []model.CoverageGap
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND assignment_id = ? AND status = ?", tenantID, assignmentID, model.GapPending).
		Order("slot_index ASC").
		Find(&list).Error
	return list, err
}

func (r *coverageGapRepo) Update(ctx context.Context, gap *model.CoverageGap) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(gap).Error
}

// SyncOpenParents 未关闭的 PPC 跟随编制的安装点/岗位/轮班，已关闭的保留快照
func (r *coverageGapRepo) SyncOpenParents(ctx context.Context, a *model.Assignment) error {
	return r.db.WithContext(ctx).
		Model(&model.CoverageGap{}).
		Where("tenant_id = ? AND assignment_id = ? AND status = ?", a.TenantID, a.AssignmentID, model.GapPending).
		Updates(map[string]interface{}{
			"installation_id": a.InstallationID,
			"post_id":         a.PostID,
			"role_id":         a.RoleID,
			"updated_at":      time.Now(),
		}).Error
}

func (r *coverageGapRepo) DeleteByAssignment(ctx context.Context, tenantID, assignmentID string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND assignment_id = ?", tenantID, assignmentID).
		Delete(&model.CoverageGap{}).Error
}

type gapCountRow struct {
	Status string
	N      int64
}

func (r *coverageGapRepo) CountByStatus(ctx context.Context, tenantID, installationID string) (map[string]int64, error) {
	var rows []gapCountRow
	db := r.db.WithContext(ctx).
		Model(&model.CoverageGap{}).
		Select("status, COUNT(*) AS n").
		Where("tenant_id = ?", tenantID)
	if installationID != "" {
		db = db.Where("installation_id = ?", installationID)
	}
	if err := db.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := map[string]int64{model.GapPending: 0, model.GapCovered: 0, model.GapJustified: 0}
	for _, row := range rows {
		result[row.Status] = row.N
	}
	return result, nil
}
