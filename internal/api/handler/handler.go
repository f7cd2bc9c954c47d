package handler

import (
	"gardops/backend/config"
	"gardops/backend/internal/realtime"
	"gardops/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Catalog      *CatalogHandler
	Guard        *GuardHandler
	Assignment   *AssignmentHandler
	GuardLinkage *GuardLinkageHandler
	Coverage     *CoverageHandler
	ShiftPost    *ShiftPostHandler
	Dashboard    *DashboardHandler
	Activity     *ActivityHandler
	Events       *EventsHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, hub *realtime.Hub, cfg *config.Config) *Handler {
	r := responder{exposeDetails: cfg.Server.ExposeErrorDetails}
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth),
		Catalog:      NewCatalogHandler(svc.Catalog, r),
		Guard:        NewGuardHandler(svc.Guard, r),
		Assignment:   NewAssignmentHandler(svc.Assignment, r),
		GuardLinkage: NewGuardLinkageHandler(svc.GuardLinkage, r),
		Coverage:     NewCoverageHandler(svc.Coverage, r),
		ShiftPost:    NewShiftPostHandler(svc.ShiftPost, r),
		Dashboard:    NewDashboardHandler(svc.Dashboard, svc.Settings, r),
		Activity:     NewActivityHandler(svc.Activity, r),
		Events:       NewEventsHandler(hub),
	}
}
