package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
	pkgerrors "gardops/backend/pkg/errors"
)

// ── 编制模块业务错误 ──

var (
	ErrAssignmentNotFound = errors.New("编制不存在")
)

// 变更提示资源名
const (
	ResourceAssignment   = "assignments"
	ResourceGuardLinkage = "guard_linkages"
	ResourceCoverageGap  = "coverage_gaps"
	ResourceShiftPost    = "shift_posts"
)

// AssignmentService 勤务编制业务接口
type AssignmentService interface {
	Create(ctx context.Context, actor Actor, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error)
	GetByID(ctx context.Context, actor Actor, id string) (*dto.AssignmentResponse, error)
	List(ctx context.Context, actor Actor, req *dto.AssignmentListRequest) ([]dto.AssignmentResponse, int64, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type assignmentService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════
// Create 编制行、席位与 PPC 在同一事务中写入
// ════════════════════════════════════════════════

func (s *assignmentService) Create(ctx context.Context, actor Actor, req *dto.CreateAssignmentRequest) (*dto.AssignmentResponse, error) {
	if err := requireRefs(req.InstallationID, req.PostID, req.RoleID); err != nil {
		return nil, err
	}
	plan, err := PlanSlots(nil, req.RequiredGuards, req.Guards)
	if err != nil {
		return nil, err
	}
	state := req.State
	if state == "" {
		state = model.AssignmentActive
	}

	a := &model.Assignment{
		TenantID:       actor.TenantID,
		InstallationID: req.InstallationID,
		PostID:         req.PostID,
		RoleID:         req.RoleID,
		RequiredGuards: req.RequiredGuards,
		State:          state,
	}
	a.CreatedBy = &actor.UserID
	a.UpdatedBy = &actor.UserID

	var gaps GapSyncResult
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := checkCatalogRefs(ctx, tx, actor.TenantID, a.InstallationID, a.PostID, a.RoleID); err != nil {
			return err
		}
		guards, err := loadGuards(ctx, tx, actor.TenantID, plan.BoundGuards())
		if err != nil {
			return err
		}
		if err := tx.Assignment.Create(ctx, a); err != nil {
			return err
		}
		slots, err := applyPlan(ctx, tx, actor, a, plan, guards)
		if err != nil {
			return err
		}
		if gaps, err = syncGaps(ctx, tx, actor, a, slots, plan.Touched()); err != nil {
			return err
		}
		return recordActivity(ctx, tx, actor, EntityAssignment, a.AssignmentID, "created", map[string]interface{}{
			"required_guards": a.RequiredGuards,
			"assigned":        len(plan.BoundGuards()),
			"gaps_opened":     gaps.Opened,
		})
	})
	if err != nil {
		logUnexpected(s.logger, "创建编制失败", err)
		return nil, err
	}

	s.notifier.Notify(ctx, actor.TenantID, ResourceAssignment, "created", a.AssignmentID)
	if gaps.Opened > 0 {
		s.notifier.Notify(ctx, actor.TenantID, ResourceCoverageGap, "changed", a.AssignmentID)
	}

	return s.GetByID(ctx, actor, a.AssignmentID)
}

// ════════════════════════════════════════════════
// Query
// ════════════════════════════════════════════════

func (s *assignmentService) GetByID(ctx context.Context, actor Actor, id string) (*dto.AssignmentResponse, error) {
	a, err := s.repo.Assignment.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrAssignmentNotFound, "查询编制失败", id)
	}

	var counts model.SlotCounts
	slots := make([]dto.SlotResponse, 0, len(a.Slots))
	for i := range a.Slots {
		if a.Slots[i].Status == model.LinkageAssigned {
			counts.Filled++
		} else {
			counts.Pending++
		}
		slots = append(slots, toSlotResponse(&a.Slots[i]))
	}

	resp := toAssignmentResponse(a, counts)
	resp.Slots = slots
	return resp, nil
}

func (s *assignmentService) List(ctx context.Context, actor Actor, req *dto.AssignmentListRequest) ([]dto.AssignmentResponse, int64, error) {
	list, total, err := s.repo.Assignment.List(ctx, actor.TenantID, repository.AssignmentFilter{
		InstallationID:  req.InstallationID,
		IncludeInactive: req.ShowInactive,
		Offset:          req.GetOffset(),
		Limit:           req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出编制失败", zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.AssignmentID)
	}
	counts, err := s.repo.GuardLinkage.CountByAssignments(ctx, actor.TenantID, ids)
	if err != nil {
		s.logger.Error("统计席位失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAssignmentResponse(&list[i], counts[list[i].AssignmentID]))
	}
	return result, total, nil
}

// ════════════════════════════════════════════════
// Update 部分更新，后写覆盖；人数或选择变化时对账
// ════════════════════════════════════════════════

func (s *assignmentService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error) {
	var gaps GapSyncResult
	var planned SlotPlan

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		a, err := tx.Assignment.GetByIDForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}

		changes := map[string]interface{}{}
		parentChanged := false

		if req.InstallationID != nil && *req.InstallationID != a.InstallationID {
			a.InstallationID = *req.InstallationID
			changes["installation_id"] = a.InstallationID
			parentChanged = true
		}
		if req.PostID != nil && *req.PostID != a.PostID {
			a.PostID = *req.PostID
			changes["post_id"] = a.PostID
			parentChanged = true
		}
		if req.RoleID != nil && *req.RoleID != a.RoleID {
			a.RoleID = *req.RoleID
			changes["role_id"] = a.RoleID
			parentChanged = true
		}
		if parentChanged {
			if err := requireRefs(a.InstallationID, a.PostID, a.RoleID); err != nil {
				return err
			}
			if err := checkCatalogRefs(ctx, tx, actor.TenantID, a.InstallationID, a.PostID, a.RoleID); err != nil {
				return err
			}
		}
		if req.State != nil && *req.State != a.State {
			a.State = *req.State
			changes["state"] = a.State
		}

		headcountChanged := false
		if req.RequiredGuards != nil && *req.RequiredGuards != a.RequiredGuards {
			if *req.RequiredGuards < 1 {
				return pkgerrors.NewValidation("required_guards", "所需保安人数至少为 1")
			}
			a.RequiredGuards = *req.RequiredGuards
			changes["required_guards"] = a.RequiredGuards
			headcountChanged = true
		}

		a.UpdatedBy = &actor.UserID
		if err := tx.Assignment.Update(ctx, a); err != nil {
			return err
		}
		if parentChanged {
			if err := tx.CoverageGap.SyncOpenParents(ctx, a); err != nil {
				return err
			}
		}

		if headcountChanged || req.Guards != nil {
			current, err := tx.GuardLinkage.ListByAssignment(ctx, actor.TenantID, a.AssignmentID)
			if err != nil {
				return err
			}
			selections := CurrentSelections(current, a.RequiredGuards)
			if req.Guards != nil {
				selections = *req.Guards
			}
			if planned, err = PlanSlots(current, a.RequiredGuards, selections); err != nil {
				return err
			}

			slots := current
			if !planned.Empty() {
				guards, err := loadGuards(ctx, tx, actor.TenantID, planned.BoundGuards())
				if err != nil {
					return err
				}
				if slots, err = applyPlan(ctx, tx, actor, a, planned, guards); err != nil {
					return err
				}
			}
			if gaps, err = syncGaps(ctx, tx, actor, a, slots, planned.Touched()); err != nil {
				return err
			}
			changes["slots"] = map[string]int{
				"inserted": len(planned.Inserts),
				"updated":  len(planned.Updates),
				"deleted":  len(planned.Deletes),
			}
		}

		return recordActivity(ctx, tx, actor, EntityAssignment, a.AssignmentID, "updated", changes)
	})
	if err != nil {
		logUnexpected(s.logger, "更新编制失败", err, zap.String("id", id))
		return nil, err
	}

	s.notifier.Notify(ctx, actor.TenantID, ResourceAssignment, "updated", id)
	if !planned.Empty() {
		s.notifier.Notify(ctx, actor.TenantID, ResourceGuardLinkage, "changed", id)
	}
	if gaps != (GapSyncResult{}) {
		s.notifier.Notify(ctx, actor.TenantID, ResourceCoverageGap, "changed", id)
	}

	return s.GetByID(ctx, actor, id)
}

// ════════════════════════════════════════════════
// Delete 物理删除编制及其席位与 PPC，不可恢复
// ════════════════════════════════════════════════

func (s *assignmentService) Delete(ctx context.Context, actor Actor, id string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		a, err := tx.Assignment.GetByIDForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		if err := tx.GuardLinkage.DeleteByAssignment(ctx, actor.TenantID, id); err != nil {
			return err
		}
		if err := tx.CoverageGap.DeleteByAssignment(ctx, actor.TenantID, id); err != nil {
			return err
		}
		if err := tx.Assignment.Delete(ctx, actor.TenantID, id); err != nil {
			return err
		}
		return recordActivity(ctx, tx, actor, EntityAssignment, id, "deleted", map[string]interface{}{
			"installation_id": a.InstallationID,
			"required_guards": a.RequiredGuards,
		})
	})
	if err != nil {
		logUnexpected(s.logger, "删除编制失败", err, zap.String("id", id))
		return err
	}

	s.notifier.Notify(ctx, actor.TenantID, ResourceAssignment, "deleted", id)
	s.notifier.Notify(ctx, actor.TenantID, ResourceCoverageGap, "changed", id)
	return nil
}

// ── 内部辅助方法 ──

func requireRefs(installationID, postID, roleID string) error {
	if strings.TrimSpace(installationID) == "" {
		return pkgerrors.NewValidation("installation_id", "必须选择安装点")
	}
	if strings.TrimSpace(postID) == "" {
		return pkgerrors.NewValidation("post_id", "必须选择岗位")
	}
	if strings.TrimSpace(roleID) == "" {
		return pkgerrors.NewValidation("role_id", "必须选择轮班")
	}
	return nil
}

// checkCatalogRefs 引用的目录数据必须存在于当前租户
func checkCatalogRefs(ctx context.Context, tx *repository.Repository, tenantID, installationID, postID, roleID string) error {
	if _, err := tx.Installation.GetByID(ctx, tenantID, installationID); err != nil {
		return notFoundOr(err, ErrInstallationNotFound)
	}
	if _, err := tx.Post.GetByID(ctx, tenantID, postID); err != nil {
		return notFoundOr(err, ErrPostNotFound)
	}
	if _, err := tx.ServiceRole.GetByID(ctx, tenantID, roleID); err != nil {
		return notFoundOr(err, ErrServiceRoleNotFound)
	}
	return nil
}

// loadGuards 批量加载并校验待绑定的保安：必须存在且在职
func loadGuards(ctx context.Context, tx *repository.Repository, tenantID string, ids []string) (map[string]*model.Guard, error) {
	result := make(map[string]*model.Guard, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	list, err := tx.Guard.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		result[list[i].GuardID] = &list[i]
	}
	for _, id := range ids {
		g, ok := result[id]
		if !ok {
			return nil, ErrGuardNotFound
		}
		if !g.IsActive {
			return nil, pkgerrors.NewValidation("guards", fmt.Sprintf("保安 %s 已停用", g.FullName()))
		}
	}
	return result, nil
}

func notFoundOr(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func toAssignmentResponse(a *model.Assignment, counts model.SlotCounts) *dto.AssignmentResponse {
	return &dto.AssignmentResponse{
		ID:               a.AssignmentID,
		InstallationID:   a.InstallationID,
		InstallationName: installationName(a.Installation),
		PostID:           a.PostID,
		PostName:         postName(a.Post),
		RoleID:           a.RoleID,
		RoleName:         roleName(a.Role),
		RequiredGuards:   a.RequiredGuards,
		State:            a.State,
		FilledSlots:      counts.Filled,
		PendingSlots:     counts.Pending,
		CreatedAt:        fmtTime(a.CreatedAt),
		UpdatedAt:        fmtTime(a.UpdatedAt),
	}
}

func toSlotResponse(l *model.GuardLinkage) dto.SlotResponse {
	resp := dto.SlotResponse{
		ID:           l.LinkageID,
		AssignmentID: l.AssignmentID,
		SlotIndex:    l.SlotIndex,
		GuardID:      l.GuardID,
		GuardName:    guardName(l.Guard),
		Status:       l.Status,
		Notes:        l.Notes,
	}
	if l.AssignedDate != nil {
		resp.AssignedDate = l.AssignedDate.Format(dateLayout)
	}
	return resp
}
