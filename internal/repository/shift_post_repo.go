package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gardops/backend/internal/model"
)

// ShiftPostFilter 轮班岗位列表条件
type ShiftPostFilter struct {
	InstallationID  string
	RoleID          string
	IncludeInactive bool
}

// ShiftPostRepository 轮班岗位数据访问接口
type ShiftPostRepository interface {
	BatchCreate(ctx context.Context, posts []model.ShiftPost) error
	GetByID(ctx context.Context, tenantID, id string) (*model.ShiftPost, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.ShiftPost, error)
	List(ctx context.Context, tenantID string, f ShiftPostFilter) ([]model.ShiftPost, error)
	ListActiveByParent(ctx context.Context, tenantID, installationID, roleID string) ([]model.ShiftPost, error)
	ListActiveByGuard(ctx context.Context, tenantID, guardID string) ([]model.ShiftPost, error)
	FindActiveByGuard(ctx context.Context, tenantID, guardID, excludeID string) (*model.ShiftPost, error)
	Update(ctx context.Context, post *model.ShiftPost) error
	UpdateLabels(ctx context.Context, posts []model.ShiftPost) error
	MaxPosition(ctx context.Context, tenantID, installationID, roleID string) (int, error)
	Counts(ctx context.Context, tenantID, installationID string) (total, filled int64, err error)
}

type shiftPostRepo struct {
	db *gorm.DB
}

// NewShiftPostRepo 创建 ShiftPostRepository 实例
func NewShiftPostRepo(db *gorm.DB) ShiftPostRepository {
	return &shiftPostRepo{db: db}
}

func (r *shiftPostRepo) BatchCreate(ctx context.Context, posts []model.ShiftPost) error {
	if len(posts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&posts).Error
}

func (r *shiftPostRepo) GetByID(ctx context.Context, tenantID, id string) (*model.ShiftPost, error) {
	var post model.ShiftPost
	err := r.db.WithContext(ctx).
		Preload("Installation").
		Preload("Role").
		Preload("Guard").
		Where("tenant_id = ? AND shift_post_id = ?", tenantID, id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByIDForUpdate 锁定岗位行，重新分配期间阻止并发写入
func (r *shiftPostRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*model.ShiftPost, error) {
	var post model.ShiftPost
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND shift_post_id = ?", tenantID, id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *shiftPostRepo) List(ctx context.Context, tenantID string, f ShiftPostFilter) ([]model.ShiftPost, error) {
	var list []model.ShiftPost
	db := r.db.WithContext(ctx).
		Preload("Installation").
		Preload("Role").
		Preload("Guard").
		Where("tenant_id = ?", tenantID)
	if f.InstallationID != "" {
		db = db.Where("installation_id = ?", f.InstallationID)
	}
	if f.RoleID != "" {
		db = db.Where("role_id = ?", f.RoleID)
	}
	if !f.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("installation_id ASC, role_id ASC, position ASC").Find(&list).Error
	return list, err
}

// ListActiveByParent 同一安装点+轮班下的生效岗位，按当前 position 排序
func (r *shiftPostRepo) ListActiveByParent(ctx context.Context, tenantID, installationID, roleID string) ([]model.ShiftPost, error) {
	var list []model.ShiftPost
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND installation_id = ? AND role_id = ? AND is_active = ?",
			tenantID, installationID, roleID, true).
		Order("position ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *shiftPostRepo) ListActiveByGuard(ctx context.Context, tenantID, guardID string) ([]model.ShiftPost, error) {
	var list []model.ShiftPost
	err := r.db.WithContext(ctx).
		Preload("Installation").
		Preload("Role").
		Where("tenant_id = ? AND guard_id = ? AND is_active = ? AND is_gap = ?", tenantID, guardID, true, false).
		Order("position ASC").
		Find(&list).Error
	return list, err
}

// FindActiveByGuard 查找保安在租户内持有的其他生效岗位，没有时返回 gorm.ErrRecordNotFound
func (r *shiftPostRepo) FindActiveByGuard(ctx context.Context, tenantID, guardID, excludeID string) (*model.ShiftPost, error) {
	var post model.ShiftPost
	db := r.db.WithContext(ctx).
		Where("tenant_id = ? AND guard_id = ? AND is_active = ? AND is_gap = ?", tenantID, guardID, true, false)
	if excludeID != "" {
		db = db.Where("shift_post_id <> ?", excludeID)
	}
	if err := db.First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *shiftPostRepo) Update(ctx context.Context, post *model.ShiftPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error
}

// UpdateLabels 仅回写 position 与 name
func (r *shiftPostRepo) UpdateLabels(ctx context.Context, posts []model.ShiftPost) error {
	now := time.Now()
	for i := range posts {
		err := r.db.WithContext(ctx).
			Model(&model.ShiftPost{}).
			Where("tenant_id = ? AND shift_post_id = ?", posts[i].TenantID, posts[i].ShiftPostID).
			Updates(map[string]interface{}{
				"position":   posts[i].Position,
				"name":       posts[i].Name,
				"updated_at": now,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *shiftPostRepo) MaxPosition(ctx context.Context, tenantID, installationID, roleID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&model.ShiftPost{}).
		Select("COALESCE(MAX(position), 0)").
		Where("tenant_id = ? AND installation_id = ? AND role_id = ? AND is_active = ?",
			tenantID, installationID, roleID, true).
		Scan(&max).Error
	return max, err
}

func (r *shiftPostRepo) Counts(ctx context.Context, tenantID, installationID string) (int64, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.ShiftPost{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true)
	if installationID != "" {
		base = base.Where("installation_id = ?", installationID)
	}

	var total, filled int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := base.Session(&gorm.Session{}).Where("is_gap = ?", false).Count(&filled).Error; err != nil {
		return 0, 0, err
	}
	return total, filled, nil
}
