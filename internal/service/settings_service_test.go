package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
)

func TestSettings_DefaultsOnFirstRead(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewSettingsService(repo, zap.NewNop())

	got, err := svc.Get(context.Background(), testActor)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if got.DashboardRefreshSeconds != model.DefaultDashboardRefreshSeconds {
		t.Errorf("期望默认刷新间隔 %d，实际=%d", model.DefaultDashboardRefreshSeconds, got.DashboardRefreshSeconds)
	}
	if got.CoverageAlertPct != model.DefaultCoverageAlertPct {
		t.Errorf("期望默认告警阈值 %d，实际=%d", model.DefaultCoverageAlertPct, got.CoverageAlertPct)
	}
	if m.settings.saves != 1 {
		t.Errorf("首次读取应写入默认行，实际写入 %d 次", m.settings.saves)
	}

	if _, err := svc.Get(context.Background(), testActor); err != nil {
		t.Fatalf("再次 Get 应成功: %v", err)
	}
	if m.settings.saves != 1 {
		t.Errorf("已有设置时不应再次写入，实际写入 %d 次", m.settings.saves)
	}
}

func TestSettings_PartialUpdate(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewSettingsService(repo, zap.NewNop())

	refresh := 25
	got, err := svc.Update(context.Background(), testActor, &dto.UpdateSettingsRequest{DashboardRefreshSeconds: &refresh})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if got.DashboardRefreshSeconds != 25 {
		t.Errorf("期望刷新间隔 25，实际=%d", got.DashboardRefreshSeconds)
	}
	if got.CoverageAlertPct != model.DefaultCoverageAlertPct {
		t.Errorf("未提供的阈值应保持默认，实际=%d", got.CoverageAlertPct)
	}
	if m.settings.settings["tenant-1"].DashboardRefreshSeconds != 25 {
		t.Error("设置应已持久化")
	}
}

func TestCoveragePct(t *testing.T) {
	tests := []struct {
		filled, required int64
		want             float64
	}{
		{0, 0, 0},
		{2, 3, 66.7},
		{1, 3, 33.3},
		{3, 3, 100},
		{5, 8, 62.5},
	}
	for _, tt := range tests {
		if got := CoveragePct(tt.filled, tt.required); got != tt.want {
			t.Errorf("CoveragePct(%d, %d) = %v，期望 %v", tt.filled, tt.required, got, tt.want)
		}
	}
}
