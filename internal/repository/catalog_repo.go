package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gardops/backend/internal/model"
)

// CatalogFilter 目录类数据的列表条件
type CatalogFilter struct {
	IncludeInactive bool
	Query           string // 仅 Guard 使用，已归一化
	Offset          int
	Limit           int
}

// softDelete 软删除一行租户数据，未命中返回 gorm.ErrRecordNotFound
func softDelete(ctx context.Context, db *gorm.DB, m interface{}, pk, tenantID, id, deletedBy string) error {
	res := db.WithContext(ctx).
		Model(m).
		Where("tenant_id = ? AND "+pk+" = ?", tenantID, id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// paginate 统计总数后按 offset/limit 取一页
func paginate(db *gorm.DB, f CatalogFilter, order string, dest interface{}) (int64, error) {
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	q := db.Session(&gorm.Session{}).Order(order)
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ────────────────────── Installation ──────────────────────

// InstallationRepository 安装点数据访问接口
type InstallationRepository interface {
	Create(ctx context.Context, inst *model.Installation) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Installation, error)
	List(ctx context.Context, tenantID string, f CatalogFilter) ([]model.Installation, int64, error)
	Update(ctx context.Context, inst *model.Installation) error
	Delete(ctx context.Context, tenantID, id, deletedBy string) error
}

type installationRepo struct {
	db *gorm.DB
}

// NewInstallationRepo 创建 InstallationRepository 实例
func NewInstallationRepo(db *gorm.DB) InstallationRepository {
	return &installationRepo{db: db}
}

func (r *installationRepo) Create(ctx context.Context, inst *model.Installation) error {
	return r.db.WithContext(ctx).Create(inst).Error
}

func (r *installationRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Installation, error) {
	var inst model.Installation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND installation_id = ?", tenantID, id).
		First(&inst).Error
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *installationRepo) List(ctx context.Context, tenantID string, f CatalogFilter) ([]model.Installation, int64, error) {
	var list []model.Installation
	db := r.db.WithContext(ctx).Model(&model.Installation{}).Where("tenant_id = ?", tenantID)
	if !f.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	total, err := paginate(db, f, "name ASC", &list)
	return list, total, err
}

func (r *installationRepo) Update(ctx context.Context, inst *model.Installation) error {
	return r.db.WithContext(ctx).Save(inst).Error
}

func (r *installationRepo) Delete(ctx context.Context, tenantID, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Installation{}, "installation_id", tenantID, id, deletedBy)
}

// ────────────────────── Post ──────────────────────

// PostRepository 岗位目录数据访问接口
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Post, error)
	List(ctx context.Context, tenantID string, f CatalogFilter) ([]model.Post, int64, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, tenantID, id, deletedBy string) error
}

type postRepo struct {
	db *gorm.DB
}

// NewPostRepo 创建 PostRepository 实例
func NewPostRepo(db *gorm.DB) PostRepository {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND post_id = ?", tenantID, id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) List(ctx context.Context, tenantID string, f CatalogFilter) ([]model.Post, int64, error) {
	var list []model.Post
	db := r.db.WithContext(ctx).Model(&model.Post{}).Where("tenant_id = ?", tenantID)
	if !f.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	total, err := paginate(db, f, "name ASC", &list)
	return list, total, err
}

func (r *postRepo) Update(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepo) Delete(ctx context.Context, tenantID, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Post{}, "post_id", tenantID, id, deletedBy)
}

// ────────────────────── ServiceRole ──────────────────────

// ServiceRoleRepository 勤务轮班数据访问接口
type ServiceRoleRepository interface {
	Create(ctx context.Context, role *model.ServiceRole) error
	GetByID(ctx context.Context, tenantID, id string) (*model.ServiceRole, error)
	List(ctx context.Context, tenantID string, f CatalogFilter) ([]model.ServiceRole, int64, error)
	Update(ctx context.Context, role *model.ServiceRole) error
	Delete(ctx context.Context, tenantID, id, deletedBy string) error
}

type serviceRoleRepo struct {
	db *gorm.DB
}

// NewServiceRoleRepo 创建 ServiceRoleRepository 实例
func NewServiceRoleRepo(db *gorm.DB) ServiceRoleRepository {
	return &serviceRoleRepo{db: db}
}

func (r *serviceRoleRepo) Create(ctx context.Context, role *model.ServiceRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *serviceRoleRepo) GetByID(ctx context.Context, tenantID, id string) (*model.ServiceRole, error) {
	var role model.ServiceRole
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role_id = ?", tenantID, id).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *serviceRoleRepo) List(ctx context.Context, tenantID string, f CatalogFilter) ([]model.ServiceRole, int64, error) {
	var list []model.ServiceRole
	db := r.db.WithContext(ctx).Model(&model.ServiceRole{}).Where("tenant_id = ?", tenantID)
	if !f.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	total, err := paginate(db, f, "name ASC", &list)
	return list, total, err
}

func (r *serviceRoleRepo) Update(ctx context.Context, role *model.ServiceRole) error {
	return r.db.WithContext(ctx).Save(role).Error
}

func (r *serviceRoleRepo) Delete(ctx context.Context, tenantID, id, deletedBy string) error {
	return softDelete(ctx, r.db, &model.ServiceRole{}, "role_id", tenantID, id, deletedBy)
}
