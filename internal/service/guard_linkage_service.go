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

// ── 席位模块业务错误 ──

var (
	ErrLinkageNotFound          = errors.New("席位不存在")
	ErrSlotNotPending           = errors.New("该席位已有保安")
	ErrGuardAlreadyInAssignment = errors.New("该保安已在此编制中")
)

// GuardLinkageService 席位业务接口
type GuardLinkageService interface {
	List(ctx context.Context, actor Actor, assignmentID string) ([]dto.SlotResponse, error)
	// Bind 将保安绑定到空缺席位，对应的 PPC 同时标记为 cubierto
	Bind(ctx context.Context, actor Actor, req *dto.BindSlotRequest) (*dto.SlotResponse, error)
	// Release 释放席位（不删除行，席位数保持等于所需人数），并开启新的 PPC
	Release(ctx context.Context, actor Actor, linkageID string) (*dto.SlotResponse, error)
}

type guardLinkageService struct {
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewGuardLinkageService 创建 GuardLinkageService 实例
func NewGuardLinkageService(repo *repository.Repository, notifier Notifier, logger *zap.Logger) GuardLinkageService {
	return &guardLinkageService{repo: repo, notifier: notifier, logger: logger}
}

func (s *guardLinkageService) List(ctx context.Context, actor Actor, assignmentID string) ([]dto.SlotResponse, error) {
	if _, err := s.repo.Assignment.GetByID(ctx, actor.TenantID, assignmentID); err != nil {
		return nil, mapNotFound(s.logger, err, ErrAssignmentNotFound, "查询编制失败", assignmentID)
	}
	slots, err := s.repo.GuardLinkage.ListByAssignment(ctx, actor.TenantID, assignmentID)
	if err != nil {
		s.logger.Error("列出席位失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		result = append(result, toSlotResponse(&slots[i]))
	}
	return result, nil
}

// ────────────────────── Bind ──────────────────────

func (s *guardLinkageService) Bind(ctx context.Context, actor Actor, req *dto.BindSlotRequest) (*dto.SlotResponse, error) {
	if req.SlotIndex == nil {
		return nil, pkgerrors.NewValidation("slot_index", "必须指定席位")
	}

	var bound model.GuardLinkage
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		a, err := tx.Assignment.GetByIDForUpdate(ctx, actor.TenantID, req.AssignmentID)
		if err != nil {
			return notFoundOr(err, ErrAssignmentNotFound)
		}
		slots, err := tx.GuardLinkage.ListByAssignment(ctx, actor.TenantID, a.AssignmentID)
		if err != nil {
			return err
		}

		idx := slotPosition(slots, *req.SlotIndex)
		if idx < 0 || *req.SlotIndex >= a.RequiredGuards {
			return ErrLinkageNotFound
		}
		if slots[idx].Status != model.LinkagePending {
			return ErrSlotNotPending
		}

		guard, err := activeGuard(ctx, tx, actor.TenantID, req.GuardID)
		if err != nil {
			return err
		}
		if guardInSlots(slots, guard.GuardID) {
			return ErrGuardAlreadyInAssignment
		}

		fillSlot(&slots[idx], guard)
		if req.Notes != "" {
			slots[idx].Notes = req.Notes
		}
		slots[idx].UpdatedBy = &actor.UserID
		if err := tx.GuardLinkage.Update(ctx, &slots[idx]); err != nil {
			return err
		}
		if _, err := syncGaps(ctx, tx, actor, a, slots, map[int]bool{slots[idx].SlotIndex: true}); err != nil {
			return err
		}

		bound = slots[idx]
		return recordActivity(ctx, tx, actor, EntityGuardLinkage, bound.LinkageID, "bound", map[string]interface{}{
			"assignment_id": a.AssignmentID,
			"slot_index":    bound.SlotIndex,
			"guard_id":      guard.GuardID,
		})
	})
	if err != nil {
		logUnexpected(s.logger, "绑定席位失败", err, zap.String("assignment_id", req.AssignmentID))
		return nil, err
	}

	s.notifier.Notify(ctx, actor.TenantID, ResourceGuardLinkage, "bound", bound.LinkageID)
	s.notifier.Notify(ctx, actor.TenantID, ResourceCoverageGap, "changed", bound.AssignmentID)

	resp := toSlotResponse(&bound)
	return &resp, nil
}

// ────────────────────── Release ──────────────────────

func (s *guardLinkageService) Release(ctx context.Context, actor Actor, linkageID string) (*dto.SlotResponse, error) {
	var released model.GuardLinkage
	changed := false

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		row, err := tx.GuardLinkage.GetByID(ctx, actor.TenantID, linkageID)
		if err != nil {
			return notFoundOr(err, ErrLinkageNotFound)
		}
		a, err := tx.Assignment.GetByIDForUpdate(ctx, actor.TenantID, row.AssignmentID)
		if err != nil {
			return notFoundOr(err, ErrAssignmentNotFound)
		}
		slots, err := tx.GuardLinkage.ListByAssignment(ctx, actor.TenantID, a.AssignmentID)
		if err != nil {
			return err
		}
		idx := slotPosition(slots, row.SlotIndex)
		if idx < 0 {
			return ErrLinkageNotFound
		}

		if slots[idx].Status == model.LinkagePending {
			// 已经空缺，幂等返回
			released = slots[idx]
			return nil
		}

		previous := slots[idx].BoundGuard()
		fillSlot(&slots[idx], nil)
		slots[idx].UpdatedBy = &actor.UserID
		if err := tx.GuardLinkage.Update(ctx, &slots[idx]); err != nil {
			return err
		}
		if _, err := syncGaps(ctx, tx, actor, a, slots, map[int]bool{slots[idx].SlotIndex: true}); err != nil {
			return err
		}

		released = slots[idx]
		changed = true
		return recordActivity(ctx, tx, actor, EntityGuardLinkage, released.LinkageID, "released", map[string]interface{}{
			"assignment_id": a.AssignmentID,
			"slot_index":    released.SlotIndex,
			"guard_id":      previous,
		})
	})
	if err != nil {
		logUnexpected(s.logger, "释放席位失败", err, zap.String("id", linkageID))
		return nil, err
	}

	if changed {
		s.notifier.Notify(ctx, actor.TenantID, ResourceGuardLinkage, "released", released.LinkageID)
		s.notifier.Notify(ctx, actor.TenantID, ResourceCoverageGap, "changed", released.AssignmentID)
	}

	resp := toSlotResponse(&released)
	return &resp, nil
}

// ── 内部辅助方法 ──

func slotPosition(slots []model.GuardLinkage, slotIndex int) int {
	for i := range slots {
		if slots[i].SlotIndex == slotIndex {
			return i
		}
	}
	return -1
}

func guardInSlots(slots []model.GuardLinkage, guardID string) bool {
	for i := range slots {
		if slots[i].BoundGuard() == guardID {
			return true
		}
	}
	return false
}

// activeGuard 保安必须存在（404）且在职（400）
func activeGuard(ctx context.Context, tx *repository.Repository, tenantID, guardID string) (*model.Guard, error) {
	guard, err := tx.Guard.GetByID(ctx, tenantID, guardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuardNotFound
		}
		return nil, err
	}
	if !guard.IsActive {
		return nil, pkgerrors.NewValidation("guard_id", "保安已停用")
	}
	return guard, nil
}
