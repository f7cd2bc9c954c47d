package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
	pkgerrors "gardops/backend/pkg/errors"
)

// ── 轮班岗位模块业务错误 ──

var (
	ErrShiftPostNotFound       = errors.New("岗位不存在")
	ErrShiftPostParentMismatch = errors.New("岗位不属于指定的安装点或轮班")
	ErrShiftPostHasGuard       = errors.New("岗位已有保安")
	ErrShiftPostInactive       = errors.New("岗位已停用")
	ErrShiftPostIsGap          = errors.New("岗位当前没有保安")
	ErrGuardBusy               = errors.New("该保安已在其他岗位上岗")
)

// ShiftPostService 轮班岗位业务接口
type ShiftPostService interface {
	// Generate 在安装点+轮班下追加 count 个空缺岗位
	Generate(ctx context.Context, actor Actor, req *dto.GeneratePostsRequest) ([]dto.ShiftPostResponse, error)
	List(ctx context.Context, actor Actor, req *dto.ShiftPostListRequest) ([]dto.ShiftPostResponse, error)
	// AssignGuard 为空缺岗位指派保安并重新编号同组岗位
	AssignGuard(ctx context.Context, actor Actor, postID string, req *dto.AssignPostGuardRequest) (*dto.AssignPostResult, error)
	// UnassignGuard 解除岗位上的保安，岗位回到空缺
	UnassignGuard(ctx context.Context, actor Actor, postID string) (*dto.AssignPostResult, error)
}

type shiftPostService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewShiftPostService 创建 ShiftPostService 实例
func NewShiftPostService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) ShiftPostService {
	return &shiftPostService{repo: repo, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════
// 编号
// ════════════════════════════════════════════════

// RenumberPosts 返回重新排序并编号后的岗位：
// filledID 对应的岗位排第一，其余有保安的岗位保持原顺序，空缺岗位在最后。
// Position 从 1 开始，Name 为 "Puesto #<Position>"。
func RenumberPosts(posts []model.ShiftPost, filledID string) []model.ShiftPost {
	ordered := make([]model.ShiftPost, 0, len(posts))
	var holders, gaps []model.ShiftPost

	for _, p := range posts {
		switch {
		case filledID != "" && p.ShiftPostID == filledID:
			ordered = append(ordered, p)
		case !p.IsGap:
			holders = append(holders, p)
		default:
			gaps = append(gaps, p)
		}
	}
	ordered = append(ordered, holders...)
	ordered = append(ordered, gaps...)

	for i := range ordered {
		ordered[i].Position = i + 1
		ordered[i].Name = postLabel(i + 1)
	}
	return ordered
}

func postLabel(n int) string {
	return fmt.Sprintf("Puesto #%d", n)
}

// relabel 重新加载同组生效岗位并回写编号
func relabel(ctx context.Context, tx *repository.Repository, tenantID, installationID, roleID, filledID string) error {
	group, err := tx.ShiftPost.ListActiveByParent(ctx, tenantID, installationID, roleID)
	if err != nil {
		return err
	}
	return tx.ShiftPost.UpdateLabels(ctx, RenumberPosts(group, filledID))
}

// ════════════════════════════════════════════════
// Generate / List
// ════════════════════════════════════════════════

func (s *shiftPostService) Generate(ctx context.Context, actor Actor, req *dto.GeneratePostsRequest) ([]dto.ShiftPostResponse, error) {
	if req.Count < 1 {
		return nil, pkgerrors.NewValidation("count", "至少生成 1 个岗位")
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Installation.GetByID(ctx, actor.TenantID, req.InstallationID); err != nil {
			return notFoundOr(err, ErrInstallationNotFound)
		}
		if _, err := tx.ServiceRole.GetByID(ctx, actor.TenantID, req.RoleID); err != nil {
			return notFoundOr(err, ErrServiceRoleNotFound)
		}

		last, err := tx.ShiftPost.MaxPosition(ctx, actor.TenantID, req.InstallationID, req.RoleID)
		if err != nil {
			return err
		}
		posts := make([]model.ShiftPost, 0, req.Count)
		for i := 1; i <= req.Count; i++ {
			p := model.ShiftPost{
				TenantID:       actor.TenantID,
				InstallationID: req.InstallationID,
				RoleID:         req.RoleID,
				IsGap:          true,
				IsActive:       true,
				Position:       last + i,
				Name:           postLabel(last + i),
			}
			p.CreatedBy = &actor.UserID
			p.UpdatedBy = &actor.UserID
			posts = append(posts, p)
		}
		if err := tx.ShiftPost.BatchCreate(ctx, posts); err != nil {
			return err
		}
		if err := relabel(ctx, tx, actor.TenantID, req.InstallationID, req.RoleID, ""); err != nil {
			return err
		}
		return recordActivity(ctx, tx, actor, EntityShiftPost, req.InstallationID, "generated", map[string]interface{}{
			"role_id": req.RoleID,
			"count":   req.Count,
		})
	})
	if err != nil {
		logUnexpected(s.logger, "生成岗位失败", err,
			zap.String("installation_id", req.InstallationID), zap.String("role_id", req.RoleID))
		return nil, err
	}

	s.notifier.Notify(ctx, actor.TenantID, ResourceShiftPost, "generated", req.InstallationID)
	return s.group(ctx, actor.TenantID, req.InstallationID, req.RoleID)
}

func (s *shiftPostService) List(ctx context.Context, actor Actor, req *dto.ShiftPostListRequest) ([]dto.ShiftPostResponse, error) {
	posts, err := s.repo.ShiftPost.List(ctx, actor.TenantID, repository.ShiftPostFilter{
		InstallationID:  req.InstallationID,
		RoleID:          req.RoleID,
		IncludeInactive: req.IncludeInactive,
	})
	if err != nil {
		s.logger.Error("查询岗位列表失败", zap.Error(err))
		return nil, err
	}
	return toShiftPostResponses(posts), nil
}

// ════════════════════════════════════════════════
// AssignGuard 校验、指派、重新编号在同一事务中完成
// ════════════════════════════════════════════════

func (s *shiftPostService) AssignGuard(ctx context.Context, actor Actor, postID string, req *dto.AssignPostGuardRequest) (*dto.AssignPostResult, error) {
	if req.PuestoID != postID {
		return nil, pkgerrors.NewValidation("puesto_id", "puesto_id 与路径中的岗位不一致")
	}

	var post *model.ShiftPost
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		post, err = tx.ShiftPost.GetByIDForUpdate(ctx, actor.TenantID, postID)
		if err != nil {
			return notFoundOr(err, ErrShiftPostNotFound)
		}
		if !post.IsActive {
			return ErrShiftPostInactive
		}
		if (req.InstalacionID != "" && req.InstalacionID != post.InstallationID) ||
			(req.RolID != "" && req.RolID != post.RoleID) {
			return ErrShiftPostParentMismatch
		}
		if !post.IsGap || post.GuardID != nil {
			return ErrShiftPostHasGuard
		}

		guard, err := activeGuard(ctx, tx, actor.TenantID, req.GuardiaID)
		if err != nil {
			return err
		}
		if _, err := tx.ShiftPost.FindActiveByGuard(ctx, actor.TenantID, guard.GuardID, post.ShiftPostID); err == nil {
			return ErrGuardBusy
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := timeNow()
		guardID := guard.GuardID
		post.GuardID = &guardID
		post.IsGap = false
		post.AssignedAt = &now
		post.UpdatedBy = &actor.UserID
		if err := tx.ShiftPost.Update(ctx, post); err != nil {
			return err
		}
		if err := relabel(ctx, tx, actor.TenantID, post.InstallationID, post.RoleID, post.ShiftPostID); err != nil {
			return err
		}

		return recordActivity(ctx, tx, actor, EntityShiftPost, post.ShiftPostID, "guard_assigned", map[string]interface{}{
			"guard_id":        guardID,
			"installation_id": post.InstallationID,
			"role_id":         post.RoleID,
		})
	})
	if err != nil {
		logUnexpected(s.logger, "岗位指派保安失败", err, zap.String("id", postID), zap.String("guard_id", req.GuardiaID))
		return nil, err
	}

	s.logger.Info("岗位已指派保安", zap.String("id", postID), zap.String("guard_id", req.GuardiaID))
	s.notifier.Notify(ctx, actor.TenantID, ResourceShiftPost, "guard_assigned", postID)
	return s.result(ctx, actor.TenantID, post)
}

// ════════════════════════════════════════════════
// UnassignGuard
// ════════════════════════════════════════════════

func (s *shiftPostService) UnassignGuard(ctx context.Context, actor Actor, postID string) (*dto.AssignPostResult, error) {
	var post *model.ShiftPost
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		post, err = tx.ShiftPost.GetByIDForUpdate(ctx, actor.TenantID, postID)
		if err != nil {
			return notFoundOr(err, ErrShiftPostNotFound)
		}
		if !post.IsActive {
			return ErrShiftPostInactive
		}
		if post.IsGap || post.GuardID == nil {
			return ErrShiftPostIsGap
		}

		previous := *post.GuardID
		post.GuardID = nil
		post.IsGap = true
		post.AssignedAt = nil
		post.UpdatedBy = &actor.UserID
		if err := tx.ShiftPost.Update(ctx, post); err != nil {
			return err
		}
		if err := relabel(ctx, tx, actor.TenantID, post.InstallationID, post.RoleID, ""); err != nil {
			return err
		}

		return recordActivity(ctx, tx, actor, EntityShiftPost, post.ShiftPostID, "guard_unassigned", map[string]interface{}{
			"guard_id": previous,
		})
	})
	if err != nil {
		logUnexpected(s.logger, "解除岗位保安失败", err, zap.String("id", postID))
		return nil, err
	}

	s.notifier.Notify(ctx, actor.TenantID, ResourceShiftPost, "guard_unassigned", postID)
	return s.result(ctx, actor.TenantID, post)
}

// ── 内部辅助方法 ──

func (s *shiftPostService) group(ctx context.Context, tenantID, installationID, roleID string) ([]dto.ShiftPostResponse, error) {
	posts, err := s.repo.ShiftPost.List(ctx, tenantID, repository.ShiftPostFilter{
		InstallationID: installationID,
		RoleID:         roleID,
	})
	if err != nil {
		s.logger.Error("查询岗位分组失败", zap.String("installation_id", installationID), zap.Error(err))
		return nil, err
	}
	return toShiftPostResponses(posts), nil
}

// result 提交后读取同组岗位；读取失败不影响已提交的结果
func (s *shiftPostService) result(ctx context.Context, tenantID string, post *model.ShiftPost) (*dto.AssignPostResult, error) {
	posts, err := s.group(ctx, tenantID, post.InstallationID, post.RoleID)
	if err != nil {
		return &dto.AssignPostResult{Success: true, Posts: []dto.ShiftPostResponse{}}, nil
	}
	return &dto.AssignPostResult{Success: true, Posts: posts}, nil
}

func toShiftPostResponses(posts []model.ShiftPost) []dto.ShiftPostResponse {
	result := make([]dto.ShiftPostResponse, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		result = append(result, dto.ShiftPostResponse{
			ID:               p.ShiftPostID,
			InstallationID:   p.InstallationID,
			InstallationName: installationName(p.Installation),
			RoleID:           p.RoleID,
			RoleName:         roleName(p.Role),
			GuardID:          p.GuardID,
			GuardName:        guardName(p.Guard),
			IsGap:            p.IsGap,
			Position:         p.Position,
			Name:             p.Name,
			IsActive:         p.IsActive,
			AssignedAt:       fmtTimePtr(p.AssignedAt),
		})
	}
	return result
}
