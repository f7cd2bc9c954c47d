package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gardops/backend/config"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
	"gardops/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Catalog      CatalogService
	Guard        GuardService
	Assignment   AssignmentService
	GuardLinkage GuardLinkageService
	Coverage     CoverageService
	ShiftPost    ShiftPostService
	Dashboard    DashboardService
	Settings     SettingsService
	Activity     ActivityService
}

// Deps 构造 Service 聚合所需的外部依赖，Blacklist / Notifier 可为空
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Notifier  Notifier
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	notifier := d.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	settings := NewSettingsService(d.Repo, d.Logger)

	return &Service{
		Auth:         NewAuthService(d.Config, d.Repo, d.JWT, d.Blacklist, d.Logger),
		Catalog:      NewCatalogService(d.Repo, d.Logger),
		Guard:        NewGuardService(d.Repo, d.Logger),
		Assignment:   NewAssignmentService(d.Repo, notifier, d.Logger),
		GuardLinkage: NewGuardLinkageService(d.Repo, notifier, d.Logger),
		Coverage:     NewCoverageService(&d.Config.Coverage, d.Repo, notifier, d.Logger),
		ShiftPost:    NewShiftPostService(d.Repo, notifier, d.Logger),
		Dashboard:    NewDashboardService(d.Repo, settings, d.Logger),
		Settings:     settings,
		Activity:     NewActivityService(d.Repo, d.Logger),
	}
}

// Actor 当前操作者，来自已认证的 JWT
type Actor struct {
	UserID   string
	TenantID string
	Role     string
}

// ── 变更提示 ──

// Notifier 事务提交后发布变更提示，失败由实现方记录日志，不影响业务结果
type Notifier interface {
	Notify(ctx context.Context, tenantID, resource, action, id string)
}

// NopNotifier 不发送任何提示
type NopNotifier struct{}

// Notify 空实现
func (NopNotifier) Notify(context.Context, string, string, string, string) {}

// ── 内部辅助 ──

// timeNow 便于测试替换
var timeNow = time.Now

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05Z07:00"
	noName     = "Sin asignar"
)

func today() time.Time {
	now := timeNow()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func fmtTime(t time.Time) string {
	return t.Format(timeLayout)
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}

func installationName(i *model.Installation) string {
	if i == nil || i.Name == "" {
		return noName
	}
	return i.Name
}

func postName(p *model.Post) string {
	if p == nil || p.Name == "" {
		return noName
	}
	return p.Name
}

func roleName(r *model.ServiceRole) string {
	if r == nil || r.Name == "" {
		return noName
	}
	return r.Name
}

func guardName(g *model.Guard) string {
	if g == nil {
		return ""
	}
	return g.FullName()
}
