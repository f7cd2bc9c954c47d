package repository

import (
	"context"

	"gorm.io/gorm"

	"gardops/backend/internal/model"
)

// GuardRepository 保安数据访问接口
type GuardRepository interface {
	Create(ctx context.Context, guard *model.Guard) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Guard, error)
	GetByRUT(ctx context.Context, tenantID, rut string) (*model.Guard, error)
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]model.Guard, error)
	List(ctx context.Context, tenantID string, f CatalogFilter) ([]model.Guard, int64, error)
	Update(ctx context.Context, guard *model.Guard) error
	Delete(ctx context.Context, tenantID, id, deletedBy string) error
}

type guardRepo struct {
	db *gorm.DB
}

// NewGuardRepo 创建 GuardRepository 实例
func NewGuardRepo(db *gorm.DB) GuardRepository {
	return &guardRepo{db: db}
}

func (r *guardRepo) Create(ctx context.Context, guard *model.Guard) error {
	return r.db.WithContext(ctx).Create(guard).Error
}

func (r *guardRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Guard, error) {
	var guard model.Guard
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND guard_id = ?", tenantID, id).
		First(&guard).Error
	if err != nil {
		return nil, err
	}
	return &guard, nil
}

func (r *guardRepo) GetByRUT(ctx context.Context, tenantID, rut string) (*model.Guard, error) {
	var guard model.Guard
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND rut = ?", tenantID, rut).
		First(&guard).Error
	if err != nil {
		return nil, err
	}
	return &guard, nil
}

// ListByIDs 批量查询，不存在的 ID 直接忽略
func (r *guardRepo) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]model.Guard, error) {
	var guards []model.Guard
	if len(ids) == 0 {
		return guards, nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND guard_id IN ?", tenantID, ids).
		Find(&guards).Error
	return guards, err
}

// List Query 为已归一化的检索词，匹配 search_name 子串
func (r *guardRepo) List(ctx context.Context, tenantID string, f CatalogFilter) ([]model.Guard, int64, error) {
	var list []model.Guard
	db := r.db.WithContext(ctx).Model(&model.Guard{}).Where("tenant_id = ?", tenantID)
	if !f.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	if f.Query != "" {
		db = db.Where("search_name LIKE ?", "%"+f.Query+"%")
	}
	total, err := paginate(db, f, "last_name ASC, first_name ASC", &list)
	return list, total, err
}

func (r *guardRepo) Update(ctx context.Context, guard *model.Guard) error {
	return r.db.WithContext(ctx).Save(guard).Error
}

func (r *guardRepo) Delete(ctx context.Context, tenantID, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Guard{}, "guard_id", tenantID, id, deletedBy)
}
