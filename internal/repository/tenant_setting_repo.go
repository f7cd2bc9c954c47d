package repository

import (
	"context"

	"gorm.io/gorm"

	"gardops/backend/internal/model"
)

// TenantSettingRepository 租户设置数据访问接口
type TenantSettingRepository interface {
	Get(ctx context.Context, tenantID string) (*model.TenantSetting, error)
	Save(ctx context.Context, s *model.TenantSetting) error
}

type tenantSettingRepo struct {
	db *gorm.DB
}

// NewTenantSettingRepo 创建 TenantSettingRepository 实例
func NewTenantSettingRepo(db *gorm.DB) TenantSettingRepository {
	return &tenantSettingRepo{db: db}
}

func (r *tenantSettingRepo) Get(ctx context.Context, tenantID string) (*model.TenantSetting, error) {
	var s model.TenantSetting
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save 主键即 tenant_id，不存在时插入
func (r *tenantSettingRepo) Save(ctx context.Context, s *model.TenantSetting) error {
	return r.db.WithContext(ctx).Save(s).Error
}
