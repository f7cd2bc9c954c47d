package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
	pkgerrors "gardops/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// 席位对账
// ═══════════════════════════════════════════════════════════
//
// 席位是下标 0..N-1 的有序数组，每个席位可选绑定一名保安。
// 编辑时把现有行与期望状态逐个比较，只产生必要的插入 / 更新 / 删除：
//   - 同一席位、同一保安：不动（行 ID 保留）
//   - 同一席位、保安变化或改为空缺：原地更新
//   - 下标 ≥ N 的行：删除；缺失的下标：插入

// SlotChange 单个席位的写入动作，Existing 为空表示插入
type SlotChange struct {
	SlotIndex int
	Existing  *model.GuardLinkage
	GuardID   string // 空串表示空缺
}

// SlotPlan 对账计划
type SlotPlan struct {
	Inserts   []SlotChange
	Updates   []SlotChange
	Deletes   []model.GuardLinkage
	Unchanged []model.GuardLinkage
}

// Empty 计划是否不需要任何写入
func (p SlotPlan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// BoundGuards 计划中新绑定的保安 ID
func (p SlotPlan) BoundGuards() []string {
	var ids []string
	for _, c := range append(append([]SlotChange{}, p.Inserts...), p.Updates...) {
		if c.GuardID != "" {
			ids = append(ids, c.GuardID)
		}
	}
	return ids
}

// Touched 计划会写入的席位下标（插入与原地更新），PPC 同步只处理这些席位
func (p SlotPlan) Touched() map[int]bool {
	touched := make(map[int]bool, len(p.Inserts)+len(p.Updates))
	for _, c := range p.Inserts {
		touched[c.SlotIndex] = true
	}
	for _, c := range p.Updates {
		touched[c.SlotIndex] = true
	}
	return touched
}

// PlanSlots 计算把 current 调整为 headcount 个席位、按 selections 绑定保安所需的最小写入。
// selections 可短于 headcount，其余席位为空缺；同一保安最多占用一个席位。
func PlanSlots(current []model.GuardLinkage, headcount int, selections []string) (SlotPlan, error) {
	var plan SlotPlan

	if headcount < 1 {
		return plan, pkgerrors.NewValidation("required_guards", "所需保安人数至少为 1")
	}
	if len(selections) > headcount {
		return plan, pkgerrors.NewValidation("guards", fmt.Sprintf("最多只能选择 %d 名保安", headcount))
	}

	desired := make([]string, headcount)
	seen := make(map[string]bool, len(selections))
	for i, sel := range selections {
		id := strings.TrimSpace(sel)
		if id == "" {
			continue
		}
		if uuid.Validate(id) != nil {
			return plan, pkgerrors.NewValidation("guards", fmt.Sprintf("第 %d 个席位的保安 ID 无效", i+1))
		}
		if seen[id] {
			return plan, pkgerrors.NewValidation("guards", "同一保安不能占用多个席位")
		}
		seen[id] = true
		desired[i] = id
	}

	bySlot := make(map[int]*model.GuardLinkage, len(current))
	for i := range current {
		row := &current[i]
		if row.SlotIndex >= headcount || row.SlotIndex < 0 {
			plan.Deletes = append(plan.Deletes, *row)
			continue
		}
		if _, dup := bySlot[row.SlotIndex]; dup {
			// 同一下标出现多行时只保留第一行
			plan.Deletes = append(plan.Deletes, *row)
			continue
		}
		bySlot[row.SlotIndex] = row
	}

	for idx := 0; idx < headcount; idx++ {
		want := desired[idx]
		row, ok := bySlot[idx]
		if !ok {
			plan.Inserts = append(plan.Inserts, SlotChange{SlotIndex: idx, GuardID: want})
			continue
		}
		if row.BoundGuard() == want && row.Status == slotStatus(want) {
			plan.Unchanged = append(plan.Unchanged, *row)
			continue
		}
		plan.Updates = append(plan.Updates, SlotChange{SlotIndex: idx, Existing: row, GuardID: want})
	}

	return plan, nil
}

// CurrentSelections 按下标列出现有席位的保安，用于只改人数不改选择的编辑
func CurrentSelections(current []model.GuardLinkage, headcount int) []string {
	sel := make([]string, headcount)
	for _, row := range current {
		if row.SlotIndex >= 0 && row.SlotIndex < headcount {
			sel[row.SlotIndex] = row.BoundGuard()
		}
	}
	return sel
}

func slotStatus(guardID string) string {
	if guardID == "" {
		return model.LinkagePending
	}
	return model.LinkageAssigned
}

// assignedNote 自动备注
func assignedNote(g *model.Guard) string {
	return fmt.Sprintf("Asignado a %s el %s", g.FullName(), today().Format(dateLayout))
}

// fillSlot 写入席位字段；guard 为空表示改为空缺
func fillSlot(row *model.GuardLinkage, guard *model.Guard) {
	if guard == nil {
		row.GuardID = nil
		row.Status = model.LinkagePending
		row.AssignedDate = nil
		row.Notes = ""
		row.Guard = nil
		return
	}
	id := guard.GuardID
	d := today()
	row.GuardID = &id
	row.Status = model.LinkageAssigned
	row.AssignedDate = &d
	row.Notes = assignedNote(guard)
	row.Guard = guard
}

// applyPlan 在事务中执行计划：先删除、再原地更新、最后插入，返回按下标排序的最终席位
func applyPlan(ctx context.Context, tx *repository.Repository, actor Actor, a *model.Assignment, plan SlotPlan, guards map[string]*model.Guard) ([]model.GuardLinkage, error) {
	ids := make([]string, 0, len(plan.Deletes))
	for _, row := range plan.Deletes {
		ids = append(ids, row.LinkageID)
	}
	if err := tx.GuardLinkage.DeleteByIDs(ctx, a.TenantID, ids); err != nil {
		return nil, err
	}

	final := make([]model.GuardLinkage, a.RequiredGuards)
	for _, row := range plan.Unchanged {
		final[row.SlotIndex] = row
	}

	for _, c := range plan.Updates {
		row := *c.Existing
		fillSlot(&row, guards[c.GuardID])
		row.UpdatedBy = &actor.UserID
		if err := tx.GuardLinkage.Update(ctx, &row); err != nil {
			return nil, err
		}
		final[c.SlotIndex] = row
	}

	for _, c := range plan.Inserts {
		row := model.GuardLinkage{
			TenantID:     a.TenantID,
			AssignmentID: a.AssignmentID,
			SlotIndex:    c.SlotIndex,
		}
		fillSlot(&row, guards[c.GuardID])
		row.CreatedBy = &actor.UserID
		row.UpdatedBy = &actor.UserID
		if err := tx.GuardLinkage.Create(ctx, &row); err != nil {
			return nil, err
		}
		final[c.SlotIndex] = row
	}

	return final, nil
}

// ═══════════════════════════════════════════════════════════
// PPC 同步
// ═══════════════════════════════════════════════════════════
//
// 对账后按最终席位维护 PPC，只处理本次写入过的席位（touched）：
//   - 变为空缺的席位没有 pendiente 记录时新建一条
//   - 新绑定的席位若有 pendiente 记录，标记为 cubierto 并关联该席位
//   - 下标已超出人数的 pendiente 记录关闭为 justificado（"Cupo eliminado"）
// 未写入的席位不动，操作员手动关闭的 PPC 不会被重新打开。

// GapSyncResult PPC 同步结果
type GapSyncResult struct {
	Opened    int
	Covered   int
	Justified int
}

func syncGaps(ctx context.Context, tx *repository.Repository, actor Actor, a *model.Assignment, slots []model.GuardLinkage, touched map[int]bool) (GapSyncResult, error) {
	var res GapSyncResult

	open, err := tx.CoverageGap.ListOpenByAssignment(ctx, a.TenantID, a.AssignmentID)
	if err != nil {
		return res, err
	}
	openBySlot := make(map[int]*model.CoverageGap, len(open))
	var extra []*model.CoverageGap
	for i := range open {
		g := &open[i]
		if _, dup := openBySlot[g.SlotIndex]; dup {
			extra = append(extra, g)
			continue
		}
		openBySlot[g.SlotIndex] = g
	}

	now := timeNow()
	for i := range slots {
		slot := &slots[i]
		gap, hasGap := openBySlot[slot.SlotIndex]
		delete(openBySlot, slot.SlotIndex)
		if !touched[slot.SlotIndex] {
			continue
		}

		switch {
		case slot.Status == model.LinkagePending && !hasGap:
			newGap := &model.CoverageGap{
				TenantID:       a.TenantID,
				AssignmentID:   a.AssignmentID,
				InstallationID: a.InstallationID,
				PostID:         a.PostID,
				RoleID:         a.RoleID,
				SlotIndex:      slot.SlotIndex,
				Status:         model.GapPending,
			}
			newGap.CreatedBy = &actor.UserID
			newGap.UpdatedBy = &actor.UserID
			if err := tx.CoverageGap.Create(ctx, newGap); err != nil {
				return res, err
			}
			res.Opened++

		case slot.Status == model.LinkageAssigned && hasGap:
			linkageID := slot.LinkageID
			gap.Status = model.GapCovered
			gap.GuardLinkageID = &linkageID
			gap.ResolvedAt = &now
			gap.AppendNote(fmt.Sprintf("Cubierto por %s el %s", guardName(slot.Guard), now.Format(dateLayout)))
			gap.UpdatedBy = &actor.UserID
			if err := tx.CoverageGap.Update(ctx, gap); err != nil {
				return res, err
			}
			res.Covered++
		}
	}

	// 剩余的 pendiente 记录对应已删除的席位，或同一席位的重复记录
	for _, g := range openBySlot {
		extra = append(extra, g)
	}
	for _, g := range extra {
		g.Status = model.GapJustified
		g.ResolvedAt = &now
		g.AppendNote("Cupo eliminado")
		g.UpdatedBy = &actor.UserID
		if err := tx.CoverageGap.Update(ctx, g); err != nil {
			return res, err
		}
		res.Justified++
	}

	return res, nil
}
