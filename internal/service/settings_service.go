package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
)

// SettingsService 租户设置业务接口
type SettingsService interface {
	// Get 读取租户设置，首次读取时按默认值创建
	Get(ctx context.Context, actor Actor) (*dto.SettingsResponse, error)
	Update(ctx context.Context, actor Actor, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type settingsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService(repo *repository.Repository, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger}
}

func (s *settingsService) Get(ctx context.Context, actor Actor) (*dto.SettingsResponse, error) {
	setting, err := s.load(ctx, s.repo, actor.TenantID)
	if err != nil {
		s.logger.Error("读取租户设置失败", zap.String("tenant_id", actor.TenantID), zap.Error(err))
		return nil, err
	}
	return toSettingsResponse(setting), nil
}

func (s *settingsService) Update(ctx context.Context, actor Actor, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	var setting *model.TenantSetting
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		if setting, err = s.load(ctx, tx, actor.TenantID); err != nil {
			return err
		}
		if req.DashboardRefreshSeconds != nil {
			setting.DashboardRefreshSeconds = *req.DashboardRefreshSeconds
		}
		if req.CoverageAlertPct != nil {
			setting.CoverageAlertPct = *req.CoverageAlertPct
		}
		setting.UpdatedBy = &actor.UserID
		return tx.TenantSetting.Save(ctx, setting)
	})
	if err != nil {
		s.logger.Error("更新租户设置失败", zap.String("tenant_id", actor.TenantID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("租户设置已更新",
		zap.String("tenant_id", actor.TenantID),
		zap.Int("dashboard_refresh_seconds", setting.DashboardRefreshSeconds),
		zap.Int("coverage_alert_pct", setting.CoverageAlertPct),
	)
	return toSettingsResponse(setting), nil
}

func (s *settingsService) load(ctx context.Context, repo *repository.Repository, tenantID string) (*model.TenantSetting, error) {
	setting, err := repo.TenantSetting.Get(ctx, tenantID)
	if err == nil {
		return setting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	setting = model.DefaultTenantSetting(tenantID)
	if err := repo.TenantSetting.Save(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

func toSettingsResponse(s *model.TenantSetting) *dto.SettingsResponse {
	return &dto.SettingsResponse{
		DashboardRefreshSeconds: s.DashboardRefreshSeconds,
		CoverageAlertPct:        s.CoverageAlertPct,
		UpdatedAt:               fmtTime(s.UpdatedAt),
	}
}
