package service

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
)

// DashboardService 监控看板接口
type DashboardService interface {
	KPIs(ctx context.Context, actor Actor, req *dto.DashboardRequest) (*dto.KPIResponse, error)
}

type dashboardService struct {
	repo     *repository.Repository
	settings SettingsService
	logger   *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, settings SettingsService, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, settings: settings, logger: logger}
}

// KPIs 各项计数互不依赖，并发查询
func (s *dashboardService) KPIs(ctx context.Context, actor Actor, req *dto.DashboardRequest) (*dto.KPIResponse, error) {
	var (
		resp     dto.KPIResponse
		gaps     map[string]int64
		settings *dto.SettingsResponse
	)
	tenantID, inst := actor.TenantID, req.InstallationID

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		resp.ActiveAssignments, err = s.repo.Assignment.CountActive(gctx, tenantID, inst)
		return err
	})
	g.Go(func() (err error) {
		resp.RequiredSlots, err = s.repo.Assignment.SumRequiredActive(gctx, tenantID, inst)
		return err
	})
	g.Go(func() (err error) {
		resp.FilledSlots, err = s.repo.GuardLinkage.CountAssignedActive(gctx, tenantID, inst)
		return err
	})
	g.Go(func() (err error) {
		gaps, err = s.repo.CoverageGap.CountByStatus(gctx, tenantID, inst)
		return err
	})
	g.Go(func() (err error) {
		resp.ShiftPostsTotal, resp.ShiftPostsFilled, err = s.repo.ShiftPost.Counts(gctx, tenantID, inst)
		return err
	})
	g.Go(func() (err error) {
		settings, err = s.settings.Get(gctx, actor)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("计算看板指标失败", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}

	resp.PendingGaps = gaps[model.GapPending]
	resp.CoveredGaps = gaps[model.GapCovered]
	resp.JustifiedGaps = gaps[model.GapJustified]
	resp.CoveragePct = CoveragePct(resp.FilledSlots, resp.RequiredSlots)
	resp.AlertThresholdPct = settings.CoverageAlertPct
	resp.Alert = resp.RequiredSlots > 0 && resp.CoveragePct < float64(settings.CoverageAlertPct)
	resp.RefreshSeconds = settings.DashboardRefreshSeconds
	resp.GeneratedAt = fmtTime(timeNow())
	return &resp, nil
}

// CoveragePct filled/required 百分比，保留一位小数；required 为 0 时返回 0
func CoveragePct(filled, required int64) float64 {
	if required <= 0 {
		return 0
	}
	return math.Round(float64(filled)*1000/float64(required)) / 10
}
