package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
	pkgerrors "gardops/backend/pkg/errors"
	"gardops/backend/pkg/textnorm"
)

// ── 保安模块业务错误 ──

var (
	ErrGuardNotFound  = errors.New("保安不存在")
	ErrGuardRUTExists = errors.New("该 RUT 已登记")
)

// 日历导出默认 / 最大天数
const (
	defaultCalendarDays = 31
	maxCalendarDays     = 62
)

// GuardService 保安业务接口
type GuardService interface {
	Create(ctx context.Context, actor Actor, req *dto.CreateGuardRequest) (*dto.GuardResponse, error)
	GetByID(ctx context.Context, actor Actor, id string) (*dto.GuardResponse, error)
	List(ctx context.Context, actor Actor, req *dto.CatalogListRequest) ([]dto.GuardResponse, int64, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.UpdateGuardRequest) (*dto.GuardResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error

	// Calendar 按保安当前岗位的轮班周期导出 iCalendar
	Calendar(ctx context.Context, actor Actor, id string, req *dto.GuardCalendarRequest) ([]byte, string, error)
}

type guardService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
}

// NewGuardService 创建 GuardService 实例
func NewGuardService(repo *repository.Repository, logger *zap.Logger) GuardService {
	return &guardService{repo: repo, logger: logger, loc: time.Local}
}

// ────────────────────── Create ──────────────────────

func (s *guardService) Create(ctx context.Context, actor Actor, req *dto.CreateGuardRequest) (*dto.GuardResponse, error) {
	rut := dto.NormalizeRUT(req.RUT)
	if err := s.ensureRUTFree(ctx, actor.TenantID, rut, ""); err != nil {
		return nil, err
	}

	guard := &model.Guard{
		TenantID:  actor.TenantID,
		RUT:       rut,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     req.Phone,
		Email:     req.Email,
		IsActive:  true,
	}
	guard.SearchName = searchName(guard)
	guard.CreatedBy = &actor.UserID
	guard.UpdatedBy = &actor.UserID

	if err := s.repo.Guard.Create(ctx, guard); err != nil {
		s.logger.Error("创建保安失败", zap.Error(err))
		return nil, err
	}
	return toGuardResponse(guard), nil
}

// ────────────────────── Query ──────────────────────

func (s *guardService) GetByID(ctx context.Context, actor Actor, id string) (*dto.GuardResponse, error) {
	guard, err := s.repo.Guard.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrGuardNotFound, "查询保安失败", id)
	}
	return toGuardResponse(guard), nil
}

// List q 忽略大小写与重音，匹配姓名或 RUT
func (s *guardService) List(ctx context.Context, actor Actor, req *dto.CatalogListRequest) ([]dto.GuardResponse, int64, error) {
	f := catalogFilter(req)
	f.Query = textnorm.Fold(req.Q)

	list, total, err := s.repo.Guard.List(ctx, actor.TenantID, f)
	if err != nil {
		s.logger.Error("列出保安失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.GuardResponse, 0, len(list))
	for i := range list {
		result = append(result, *toGuardResponse(&list[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *guardService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateGuardRequest) (*dto.GuardResponse, error) {
	guard, err := s.repo.Guard.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrGuardNotFound, "查询保安失败", id)
	}

	if req.RUT != nil {
		rut := dto.NormalizeRUT(*req.RUT)
		if rut != guard.RUT {
			if err := s.ensureRUTFree(ctx, actor.TenantID, rut, guard.GuardID); err != nil {
				return nil, err
			}
			guard.RUT = rut
		}
	}
	if req.FirstName != nil {
		guard.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		guard.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		guard.Phone = *req.Phone
	}
	if req.Email != nil {
		guard.Email = *req.Email
	}
	if req.IsActive != nil {
		guard.IsActive = *req.IsActive
	}
	guard.SearchName = searchName(guard)
	guard.UpdatedBy = &actor.UserID

	if err := s.repo.Guard.Update(ctx, guard); err != nil {
		s.logger.Error("更新保安失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toGuardResponse(guard), nil
}

// ────────────────────── Delete ──────────────────────

func (s *guardService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.repo.Guard.Delete(ctx, actor.TenantID, id, actor.UserID); err != nil {
		return mapNotFound(s.logger, err, ErrGuardNotFound, "删除保安失败", id)
	}
	return nil
}

// ────────────────────── Calendar ──────────────────────

func (s *guardService) Calendar(ctx context.Context, actor Actor, id string, req *dto.GuardCalendarRequest) ([]byte, string, error) {
	guard, err := s.repo.Guard.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, "", mapNotFound(s.logger, err, ErrGuardNotFound, "查询保安失败", id)
	}

	from := today().In(s.loc)
	if req.From != "" {
		from, err = time.ParseInLocation(dateLayout, req.From, s.loc)
		if err != nil {
			return nil, "", pkgerrors.NewValidation("from", "日期格式应为 YYYY-MM-DD")
		}
	}
	days := req.Days
	if days <= 0 {
		days = defaultCalendarDays
	}
	if days > maxCalendarDays {
		return nil, "", pkgerrors.NewValidation("days", fmt.Sprintf("最多导出 %d 天", maxCalendarDays))
	}

	posts, err := s.repo.ShiftPost.ListActiveByGuard(ctx, actor.TenantID, guard.GuardID)
	if err != nil {
		s.logger.Error("查询保安岗位失败", zap.String("guard_id", id), zap.Error(err))
		return nil, "", err
	}

	body := BuildGuardCalendar(guard, posts, from, days, s.loc)
	filename := fmt.Sprintf("turnos_%s.ics", guard.RUT)
	return []byte(body), filename, nil
}

// ── 内部辅助方法 ──

func (s *guardService) ensureRUTFree(ctx context.Context, tenantID, rut, selfID string) error {
	existing, err := s.repo.Guard.GetByRUT(ctx, tenantID, rut)
	if err == nil && existing.GuardID != selfID {
		return ErrGuardRUTExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询 RUT 失败", zap.Error(err))
		return err
	}
	return nil
}

// searchName 检索列："名 姓 rut"，去重音小写
func searchName(g *model.Guard) string {
	return textnorm.Fold(g.FirstName + " " + g.LastName + " " + g.RUT)
}

func toGuardResponse(g *model.Guard) *dto.GuardResponse {
	return &dto.GuardResponse{
		ID:        g.GuardID,
		RUT:       g.RUT,
		FirstName: g.FirstName,
		LastName:  g.LastName,
		FullName:  g.FullName(),
		Phone:     g.Phone,
		Email:     g.Email,
		IsActive:  g.IsActive,
		CreatedAt: fmtTime(g.CreatedAt),
		UpdatedAt: fmtTime(g.UpdatedAt),
	}
}
