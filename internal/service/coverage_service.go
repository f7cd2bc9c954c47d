package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gardops/backend/config"
	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
	pkgerrors "gardops/backend/pkg/errors"
)

// ── PPC 模块业务错误 ──

var (
	ErrGapNotFound       = errors.New("PPC 不存在")
	ErrGapNotPending     = errors.New("只有 pendiente 状态的 PPC 可以指派保安")
	ErrGapReopenConflict = errors.New("该席位已有未关闭的 PPC")
)

// CoverageService 待补岗位（PPC）业务接口
type CoverageService interface {
	List(ctx context.Context, actor Actor, req *dto.GapListRequest) ([]dto.GapResponse, int64, error)
	GetByID(ctx context.Context, actor Actor, id string) (*dto.GapResponse, error)
	// Update 手动修改状态 / 备注
	Update(ctx context.Context, actor Actor, id string, req *dto.UpdateGapRequest) (*dto.GapResponse, error)
	// AssignGuard 指派保安补上 PPC 对应的席位
	AssignGuard(ctx context.Context, actor Actor, id string, req *dto.ResolveGapRequest) (*dto.GapResponse, error)
	// Export 按列表条件导出 Excel，返回内容与建议文件名
	Export(ctx context.Context, actor Actor, req *dto.GapListRequest) ([]byte, string, error)
}

type coverageService struct {
	cfg      *config.CoverageConfig
	repo     *repository.Repository
	notifier Notifier
	logger   *zap.Logger
}

// NewCoverageService 创建 CoverageService 实例
func NewCoverageService(cfg *config.CoverageConfig, repo *repository.Repository, notifier Notifier, logger *zap.Logger) CoverageService {
	if cfg == nil {
		cfg = &config.CoverageConfig{}
	}
	return &coverageService{cfg: cfg, repo: repo, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════
// Query
// ════════════════════════════════════════════════

func (s *coverageService) List(ctx context.Context, actor Actor, req *dto.GapListRequest) ([]dto.GapResponse, int64, error) {
	f, err := gapFilter(req)
	if err != nil {
		return nil, 0, err
	}
	f.Offset = req.GetOffset()
	f.Limit = req.GetPageSize()

	gaps, total, err := s.repo.CoverageGap.List(ctx, actor.TenantID, f)
	if err != nil {
		s.logger.Error("查询 PPC 列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.GapResponse, 0, len(gaps))
	for i := range gaps {
		result = append(result, *toGapResponse(&gaps[i]))
	}
	return result, total, nil
}

func (s *coverageService) GetByID(ctx context.Context, actor Actor, id string) (*dto.GapResponse, error) {
	gap, err := s.repo.CoverageGap.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, mapNotFound(s.logger, err, ErrGapNotFound, "查询 PPC 失败", id)
	}
	return toGapResponse(gap), nil
}

// gapFilter 解析日期条件，date_to 当天包含在内
func gapFilter(req *dto.GapListRequest) (repository.GapFilter, error) {
	f := repository.GapFilter{
		InstallationID: req.InstallationID,
		Status:         req.Status,
	}
	if req.DateFrom != "" {
		from, err := time.ParseInLocation(dateLayout, req.DateFrom, time.Local)
		if err != nil {
			return f, pkgerrors.NewValidation("date_from", "日期格式应为 YYYY-MM-DD")
		}
		f.CreatedFrom = &from
	}
	if req.DateTo != "" {
		to, err := time.ParseInLocation(dateLayout, req.DateTo, time.Local)
		if err != nil {
			return f, pkgerrors.NewValidation("date_to", "日期格式应为 YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		f.CreatedTo = &to
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && !f.CreatedFrom.Before(*f.CreatedTo) {
		return f, pkgerrors.NewValidation("date_from", "开始日期不能晚于结束日期")
	}
	return f, nil
}

// ════════════════════════════════════════════════
// Update 手动修改状态或备注
// ════════════════════════════════════════════════

func (s *coverageService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateGapRequest) (*dto.GapResponse, error) {
	if req.Status == nil && req.Notes == nil {
		return nil, pkgerrors.NewValidation("status", "未提供任何修改")
	}

	changed := false
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		gap, err := tx.CoverageGap.GetByIDForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return notFoundOr(err, ErrGapNotFound)
		}

		detail := map[string]interface{}{}
		if req.Status != nil && *req.Status != gap.Status {
			next := *req.Status
			if !model.ValidGapStatus(next) {
				return pkgerrors.NewValidation("status", "无效的 PPC 状态")
			}
			if err := s.checkTransition(ctx, tx, gap, next); err != nil {
				return err
			}
			detail["status"] = map[string]string{"from": gap.Status, "to": next}
			gap.Status = next
			if next == model.GapPending {
				gap.ResolvedAt = nil
			} else {
				now := timeNow()
				gap.ResolvedAt = &now
			}
		}
		if req.Notes != nil && *req.Notes != gap.Notes {
			gap.Notes = *req.Notes
			detail["notes"] = true
		}
		if len(detail) == 0 {
			return nil
		}

		gap.UpdatedBy = &actor.UserID
		if err := tx.CoverageGap.Update(ctx, gap); err != nil {
			return err
		}
		changed = true
		return recordActivity(ctx, tx, actor, EntityCoverageGap, gap.GapID, "updated", detail)
	})
	if err != nil {
		logUnexpected(s.logger, "更新 PPC 失败", err, zap.String("id", id))
		return nil, err
	}

	if changed {
		s.notifier.Notify(ctx, actor.TenantID, ResourceCoverageGap, "updated", id)
	}
	return s.GetByID(ctx, actor, id)
}

// checkTransition 严格模式下 cubierto 必须关联席位；重新打开时同一席位不能已有未关闭的 PPC
func (s *coverageService) checkTransition(ctx context.Context, tx *repository.Repository, gap *model.CoverageGap, next string) error {
	switch next {
	case model.GapCovered:
		if s.cfg.StrictCovered && gap.GuardLinkageID == nil {
			return pkgerrors.NewValidation("status", "标记为 cubierto 前必须先指派保安")
		}
	case model.GapPending:
		open, err := tx.CoverageGap.ListOpenByAssignment(ctx, gap.TenantID, gap.AssignmentID)
		if err != nil {
			return err
		}
		for _, other := range open {
			if other.GapID != gap.GapID && other.SlotIndex == gap.SlotIndex {
				return ErrGapReopenConflict
			}
		}
	}
	return nil
}

// ════════════════════════════════════════════════
// AssignGuard 席位绑定与 PPC 关闭在同一事务中完成
// ════════════════════════════════════════════════

func (s *coverageService) AssignGuard(ctx context.Context, actor Actor, id string, req *dto.ResolveGapRequest) (*dto.GapResponse, error) {
	var linkageID string
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		gap, err := tx.CoverageGap.GetByIDForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return notFoundOr(err, ErrGapNotFound)
		}
		if gap.Status != model.GapPending {
			return ErrGapNotPending
		}

		a, err := tx.Assignment.GetByIDForUpdate(ctx, actor.TenantID, gap.AssignmentID)
		if err != nil {
			return notFoundOr(err, ErrAssignmentNotFound)
		}
		guard, err := activeGuard(ctx, tx, actor.TenantID, req.GuardID)
		if err != nil {
			return err
		}

		slots, err := tx.GuardLinkage.ListByAssignment(ctx, actor.TenantID, a.AssignmentID)
		if err != nil {
			return err
		}
		if guardInSlots(slots, guard.GuardID) {
			return ErrGuardAlreadyInAssignment
		}

		var row model.GuardLinkage
		if idx := slotPosition(slots, gap.SlotIndex); idx >= 0 {
			if slots[idx].Status != model.LinkagePending {
				return ErrSlotNotPending
			}
			row = slots[idx]
			fillSlot(&row, guard)
			row.UpdatedBy = &actor.UserID
			if err := tx.GuardLinkage.Update(ctx, &row); err != nil {
				return err
			}
		} else {
			// 席位行已不存在时补建一行
			row = model.GuardLinkage{
				TenantID:     actor.TenantID,
				AssignmentID: a.AssignmentID,
				SlotIndex:    gap.SlotIndex,
			}
			fillSlot(&row, guard)
			row.CreatedBy = &actor.UserID
			row.UpdatedBy = &actor.UserID
			if err := tx.GuardLinkage.Create(ctx, &row); err != nil {
				return err
			}
		}

		now := timeNow()
		linkageID = row.LinkageID
		gap.Status = model.GapCovered
		gap.GuardLinkageID = &linkageID
		gap.ResolvedAt = &now
		gap.AppendNote(fmt.Sprintf("Cubierto por %s el %s", guard.FullName(), now.Format(dateLayout)))
		gap.UpdatedBy = &actor.UserID
		if err := tx.CoverageGap.Update(ctx, gap); err != nil {
			return err
		}

		return recordActivity(ctx, tx, actor, EntityCoverageGap, gap.GapID, "resolved", map[string]interface{}{
			"assignment_id":    a.AssignmentID,
			"slot_index":       gap.SlotIndex,
			"guard_id":         guard.GuardID,
			"guard_linkage_id": linkageID,
		})
	})
	if err != nil {
		logUnexpected(s.logger, "PPC 指派保安失败", err, zap.String("id", id))
		return nil, err
	}

	s.logger.Info("PPC 已补上", zap.String("id", id), zap.String("guard_linkage_id", linkageID))
	s.notifier.Notify(ctx, actor.TenantID, ResourceCoverageGap, "resolved", id)
	s.notifier.Notify(ctx, actor.TenantID, ResourceGuardLinkage, "bound", linkageID)

	return s.GetByID(ctx, actor, id)
}

// ════════════════════════════════════════════════
// Export 按筛选条件导出 Excel
// ════════════════════════════════════════════════

var gapExportHeaders = []string{
	"Instalación", "Puesto", "Rol", "Cupo", "Estado", "Guardia", "Notas", "Creado", "Resuelto",
}

func (s *coverageService) Export(ctx context.Context, actor Actor, req *dto.GapListRequest) ([]byte, string, error) {
	f, err := gapFilter(req)
	if err != nil {
		return nil, "", err
	}
	gaps, _, err := s.repo.CoverageGap.List(ctx, actor.TenantID, f)
	if err != nil {
		s.logger.Error("查询导出 PPC 失败", zap.Error(err))
		return nil, "", err
	}

	buf, err := buildGapWorkbook(gaps)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ppc_%s.xlsx", today().Format(dateLayout)), nil
}

func buildGapWorkbook(gaps []model.CoverageGap) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "PPC"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range gapExportHeaders {
		c, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, c, h)
	}
	last, _ := excelize.ColumnNumberToName(len(gapExportHeaders))
	f.SetCellStyle(sheet, "A1", last+"1", headerStyle)
	f.SetColWidth(sheet, "A", "C", 24)
	f.SetColWidth(sheet, "F", "G", 32)
	f.SetColWidth(sheet, "H", "I", 20)

	for r := range gaps {
		g := toGapResponse(&gaps[r])
		resolved := ""
		if g.ResolvedAt != nil {
			resolved = *g.ResolvedAt
		}
		values := []interface{}{
			g.InstallationName, g.PostName, g.RoleName, g.SlotIndex + 1,
			g.Status, g.GuardName, g.Notes, g.CreatedAt, resolved,
		}
		c, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, c, &values); err != nil {
			return nil, err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ── 内部辅助方法 ──

func toGapResponse(g *model.CoverageGap) *dto.GapResponse {
	resp := &dto.GapResponse{
		ID:               g.GapID,
		AssignmentID:     g.AssignmentID,
		InstallationID:   g.InstallationID,
		InstallationName: installationName(g.Installation),
		PostID:           g.PostID,
		PostName:         postName(g.Post),
		RoleID:           g.RoleID,
		RoleName:         roleName(g.Role),
		SlotIndex:        g.SlotIndex,
		GuardLinkageID:   g.GuardLinkageID,
		Status:           g.Status,
		Notes:            g.Notes,
		CreatedAt:        fmtTime(g.CreatedAt),
		ResolvedAt:       fmtTimePtr(g.ResolvedAt),
	}
	if g.GuardLinkage != nil {
		resp.GuardName = guardName(g.GuardLinkage.Guard)
	}
	return resp
}
