package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
)

// 操作日志实体
const (
	EntityAssignment   = "assignment"
	EntityGuardLinkage = "guard_linkage"
	EntityCoverageGap  = "coverage_gap"
	EntityShiftPost    = "shift_post"
)

// ActivityService 操作日志查询接口
type ActivityService interface {
	List(ctx context.Context, actor Actor, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error)
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

func (s *activityService) List(ctx context.Context, actor Actor, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error) {
	logs, total, err := s.repo.ActivityLog.List(ctx, actor.TenantID, repository.ActivityFilter{
		Entity:   req.Entity,
		EntityID: req.EntityID,
		Offset:   req.GetOffset(),
		Limit:    req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询操作日志失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ActivityResponse, 0, len(logs))
	for _, l := range logs {
		var detail interface{}
		if len(l.Detail) > 0 {
			_ = json.Unmarshal(l.Detail, &detail)
		}
		result = append(result, dto.ActivityResponse{
			ID:        l.ActivityID,
			ActorID:   l.ActorID,
			Entity:    l.Entity,
			EntityID:  l.EntityID,
			Action:    l.Action,
			Detail:    detail,
			CreatedAt: fmtTime(l.CreatedAt),
		})
	}
	return result, total, nil
}

// recordActivity 在业务事务内写一条操作日志，写入失败会使整个事务回滚
func recordActivity(ctx context.Context, tx *repository.Repository, actor Actor, entity, entityID, action string, detail interface{}) error {
	entry := &model.ActivityLog{
		TenantID: actor.TenantID,
		ActorID:  actor.UserID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
	}
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		entry.Detail = datatypes.JSON(raw)
	}
	return tx.ActivityLog.Create(ctx, entry)
}
