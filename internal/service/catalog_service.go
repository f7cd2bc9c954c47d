package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
	pkgerrors "gardops/backend/pkg/errors"
)

// ── 目录模块业务错误 ──

var (
	ErrInstallationNotFound = errors.New("安装点不存在")
	ErrPostNotFound         = errors.New("岗位不存在")
	ErrServiceRoleNotFound  = errors.New("轮班不存在")
)

// CatalogService 安装点 / 岗位目录 / 轮班业务接口
type CatalogService interface {
	CreateInstallation(ctx context.Context, actor Actor, req *dto.CreateInstallationRequest) (*dto.InstallationResponse, error)
	GetInstallation(ctx context.Context, actor Actor, id string) (*dto.InstallationResponse, error)
	ListInstallations(ctx context.Context, actor Actor, req *dto.CatalogListRequest) ([]dto.InstallationResponse, int64, error)
	UpdateInstallation(ctx context.Context, actor Actor, id string, req *dto.UpdateInstallationRequest) (*dto.InstallationResponse, error)
	DeleteInstallation(ctx context.Context, actor Actor, id string) error

	CreatePost(ctx context.Context, actor Actor, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	GetPost(ctx context.Context, actor Actor, id string) (*dto.PostResponse, error)
	ListPosts(ctx context.Context, actor Actor, req *dto.CatalogListRequest) ([]dto.PostResponse, int64, error)
	UpdatePost(ctx context.Context, actor Actor, id string, req *dto.UpdatePostRequest) (*dto.PostResponse, error)
	DeletePost(ctx context.Context, actor Actor, id string) error

	CreateServiceRole(ctx context.Context, actor Actor, req *dto.CreateServiceRoleRequest) (*dto.ServiceRoleResponse, error)
	GetServiceRole(ctx context.Context, actor Actor, id string) (*dto.ServiceRoleResponse, error)
	ListServiceRoles(ctx context.Context, actor Actor, req *dto.CatalogListRequest) ([]dto.ServiceRoleResponse, int64, error)
	UpdateServiceRole(ctx context.Context, actor Actor, id string, req *dto.UpdateServiceRoleRequest) (*dto.ServiceRoleResponse, error)
	DeleteServiceRole(ctx context.Context, actor Actor, id string) error
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

func catalogFilter(req *dto.CatalogListRequest) repository.CatalogFilter {
	return repository.CatalogFilter{
		IncludeInactive: req.IncludeInactive,
		Offset:          req.GetOffset(),
		Limit:           req.GetPageSize(),
	}
}

// mapNotFound 将 gorm.ErrRecordNotFound 转为领域错误，其余错误记录日志后原样返回
func mapNotFound(logger *zap.Logger, err error, notFound error, msg, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	logger.Error(msg, zap.String("id", id), zap.Error(err))
	return err
}

// ────────────────────── Installation ──────────────────────

func (s *catalogService) CreateInstallation(ctx context.Context, actor Actor, req *dto.CreateInstallationRequest) (*dto.InstallationResponse, error) {
	inst := &model.Installation{
		TenantID:   actor.TenantID,
		Name:       req.Name,
		ClientName: req.ClientName,
		Address:    req.Address,
		Commune:    req.Commune,
		IsActive:   true,
	}
	inst.CreatedBy = &actor.UserID
	inst.UpdatedBy = &actor.UserID

	if err := s.repo.Installation.Create(ctx, inst); err != nil {
		s.logger.Error("创建安装点失败", zap.Error(err))
		return nil, err
	}
	return toInstallationResponse(inst), nil
}

func (s *catalogService) GetInstallation(ctx context.Context, actor Actor, id string) (*dto.InstallationResponse, error) {
	inst, err := s.repo.Installation.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrInstallationNotFound, "查询安装点失败", id)
	}
	return toInstallationResponse(inst), nil
}

func (s *catalogService) ListInstallations(ctx context.Context, actor Actor, req *dto.CatalogListRequest) ([]dto.InstallationResponse, int64, error) {
	list, total, err := s.repo.Installation.List(ctx, actor.TenantID, catalogFilter(req))
	if err != nil {
		s.logger.Error("列出安装点失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.InstallationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toInstallationResponse(&list[i]))
	}
	return result, total, nil
}

func (s *catalogService) UpdateInstallation(ctx context.Context, actor Actor, id string, req *dto.UpdateInstallationRequest) (*dto.InstallationResponse, error) {
	inst, err := s.repo.Installation.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrInstallationNotFound, "查询安装点失败", id)
	}

	if req.Name != nil {
		inst.Name = *req.Name
	}
	if req.ClientName != nil {
		inst.ClientName = *req.ClientName
	}
	if req.Address != nil {
		inst.Address = *req.Address
	}
	if req.Commune != nil {
		inst.Commune = *req.Commune
	}
	if req.IsActive != nil {
		inst.IsActive = *req.IsActive
	}
	inst.UpdatedBy = &actor.UserID

	if err := s.repo.Installation.Update(ctx, inst); err != nil {
		s.logger.Error("更新安装点失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toInstallationResponse(inst), nil
}

func (s *catalogService) DeleteInstallation(ctx context.Context, actor Actor, id string) error {
	if err := s.repo.Installation.Delete(ctx, actor.TenantID, id, actor.UserID); err != nil {
		return mapNotFound(s.logger, err, ErrInstallationNotFound, "删除安装点失败", id)
	}
	return nil
}

// ────────────────────── Post ──────────────────────

func (s *catalogService) CreatePost(ctx context.Context, actor Actor, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	post := &model.Post{
		TenantID:    actor.TenantID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	post.CreatedBy = &actor.UserID
	post.UpdatedBy = &actor.UserID

	if err := s.repo.Post.Create(ctx, post); err != nil {
		s.logger.Error("创建岗位失败", zap.Error(err))
		return nil, err
	}
	return toPostResponse(post), nil
}

func (s *catalogService) GetPost(ctx context.Context, actor Actor, id string) (*dto.PostResponse, error) {
	post, err := s.repo.Post.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrPostNotFound, "查询岗位失败", id)
	}
	return toPostResponse(post), nil
}

func (s *catalogService) ListPosts(ctx context.Context, actor Actor, req *dto.CatalogListRequest) ([]dto.PostResponse, int64, error) {
	list, total, err := s.repo.Post.List(ctx, actor.TenantID, catalogFilter(req))
	if err != nil {
		s.logger.Error("列出岗位失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.PostResponse, 0, len(list))
	for i := range list {
		result = append(result, *toPostResponse(&list[i]))
	}
	return result, total, nil
}

func (s *catalogService) UpdatePost(ctx context.Context, actor Actor, id string, req *dto.UpdatePostRequest) (*dto.PostResponse, error) {
	post, err := s.repo.Post.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrPostNotFound, "查询岗位失败", id)
	}

	if req.Name != nil {
		post.Name = *req.Name
	}
	if req.Description != nil {
		post.Description = *req.Description
	}
	if req.IsActive != nil {
		post.IsActive = *req.IsActive
	}
	post.UpdatedBy = &actor.UserID

	if err := s.repo.Post.Update(ctx, post); err != nil {
		s.logger.Error("更新岗位失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toPostResponse(post), nil
}

func (s *catalogService) DeletePost(ctx context.Context, actor Actor, id string) error {
	if err := s.repo.Post.Delete(ctx, actor.TenantID, id, actor.UserID); err != nil {
		return mapNotFound(s.logger, err, ErrPostNotFound, "删除岗位失败", id)
	}
	return nil
}

// ────────────────────── ServiceRole ──────────────────────

func (s *catalogService) CreateServiceRole(ctx context.Context, actor Actor, req *dto.CreateServiceRoleRequest) (*dto.ServiceRoleResponse, error) {
	if err := validateRoleShape(req.WorkDays, req.RestDays, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	role := &model.ServiceRole{
		TenantID:  actor.TenantID,
		Name:      req.Name,
		WorkDays:  req.WorkDays,
		RestDays:  req.RestDays,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  true,
	}
	role.CreatedBy = &actor.UserID
	role.UpdatedBy = &actor.UserID

	if err := s.repo.ServiceRole.Create(ctx, role); err != nil {
		s.logger.Error("创建轮班失败", zap.Error(err))
		return nil, err
	}
	return toServiceRoleResponse(role), nil
}

func (s *catalogService) GetServiceRole(ctx context.Context, actor Actor, id string) (*dto.ServiceRoleResponse, error) {
	role, err := s.repo.ServiceRole.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrServiceRoleNotFound, "查询轮班失败", id)
	}
	return toServiceRoleResponse(role), nil
}

func (s *catalogService) ListServiceRoles(ctx context.Context, actor Actor, req *dto.CatalogListRequest) ([]dto.ServiceRoleResponse, int64, error) {
	list, total, err := s.repo.ServiceRole.List(ctx, actor.TenantID, catalogFilter(req))
	if err != nil {
		s.logger.Error("列出轮班失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.ServiceRoleResponse, 0, len(list))
	for i := range list {
		result = append(result, *toServiceRoleResponse(&list[i]))
	}
	return result, total, nil
}

func (s *catalogService) UpdateServiceRole(ctx context.Context, actor Actor, id string, req *dto.UpdateServiceRoleRequest) (*dto.ServiceRoleResponse, error) {
	role, err := s.repo.ServiceRole.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrServiceRoleNotFound, "查询轮班失败", id)
	}

	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.WorkDays != nil {
		role.WorkDays = *req.WorkDays
	}
	if req.RestDays != nil {
		role.RestDays = *req.RestDays
	}
	if req.StartTime != nil {
		role.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		role.EndTime = *req.EndTime
	}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}
	if err := validateRoleShape(role.WorkDays, role.RestDays, role.StartTime, role.EndTime); err != nil {
		return nil, err
	}
	role.UpdatedBy = &actor.UserID

	if err := s.repo.ServiceRole.Update(ctx, role); err != nil {
		s.logger.Error("更新轮班失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toServiceRoleResponse(role), nil
}

func (s *catalogService) DeleteServiceRole(ctx context.Context, actor Actor, id string) error {
	if err := s.repo.ServiceRole.Delete(ctx, actor.TenantID, id, actor.UserID); err != nil {
		return mapNotFound(s.logger, err, ErrServiceRoleNotFound, "删除轮班失败", id)
	}
	return nil
}

// ── 内部辅助方法 ──

func validateRoleShape(workDays, restDays int, start, end string) error {
	if workDays < 1 {
		return pkgerrors.NewValidation("work_days", "工作天数至少为 1")
	}
	if restDays < 0 {
		return pkgerrors.NewValidation("rest_days", "休息天数不能为负")
	}
	if start == end {
		return pkgerrors.NewValidation("end_time", "结束时间不能与开始时间相同")
	}
	return nil
}

func toInstallationResponse(i *model.Installation) *dto.InstallationResponse {
	return &dto.InstallationResponse{
		ID:         i.InstallationID,
		Name:       i.Name,
		ClientName: i.ClientName,
		Address:    i.Address,
		Commune:    i.Commune,
		IsActive:   i.IsActive,
		CreatedAt:  fmtTime(i.CreatedAt),
		UpdatedAt:  fmtTime(i.UpdatedAt),
	}
}

func toPostResponse(p *model.Post) *dto.PostResponse {
	return &dto.PostResponse{
		ID:          p.PostID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
		CreatedAt:   fmtTime(p.CreatedAt),
		UpdatedAt:   fmtTime(p.UpdatedAt),
	}
}

func toServiceRoleResponse(r *model.ServiceRole) *dto.ServiceRoleResponse {
	return &dto.ServiceRoleResponse{
		ID:        r.RoleID,
		Name:      r.Name,
		WorkDays:  r.WorkDays,
		RestDays:  r.RestDays,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		IsActive:  r.IsActive,
		CreatedAt: fmtTime(r.CreatedAt),
		UpdatedAt: fmtTime(r.UpdatedAt),
	}
}
