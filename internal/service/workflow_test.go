package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gardops/backend/config"
	"gardops/backend/internal/dto"
	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
	pkgerrors "gardops/backend/pkg/errors"
	"gardops/backend/pkg/jwt"
)

// ═══════════════════════════════════════════════════════════
// 基于 SQLite 内存库的事务流程测试
// ═══════════════════════════════════════════════════════════

type workflowEnv struct {
	db     *gorm.DB
	repo   *repository.Repository
	svc    *Service
	notify *recordingNotifier
	actor  Actor
	inst   *model.Installation
	post   *model.Post
	role   *model.ServiceRole
	guards map[string]*model.Guard // A / B / C / X（X 已停用）
}

func setupWorkflow(t *testing.T, strict bool) *workflowEnv {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("打开 SQLite 失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.Tenant{}, &model.User{},
		&model.Installation{}, &model.Post{}, &model.ServiceRole{}, &model.Guard{},
		&model.Assignment{}, &model.GuardLinkage{}, &model.CoverageGap{},
		&model.ShiftPost{}, &model.TenantSetting{}, &model.ActivityLog{},
	); err != nil {
		t.Fatalf("建表失败: %v", err)
	}

	repo := repository.NewRepository(db)
	env := &workflowEnv{
		db:     db,
		repo:   repo,
		notify: &recordingNotifier{},
		actor:  Actor{UserID: uuid.NewString(), TenantID: uuid.NewString(), Role: model.RoleOperator},
		guards: make(map[string]*model.Guard),
	}

	cfg := &config.Config{
		Auth:     config.AuthConfig{JWTSecret: "test-secret-key-for-unit-testing", AccessTokenTTL: 15 * time.Minute},
		Coverage: config.CoverageConfig{StrictCovered: strict},
	}
	env.svc = NewService(Deps{
		Config:   cfg,
		Repo:     repo,
		JWT:      jwt.NewManager(&cfg.Auth),
		Notifier: env.notify,
		Logger:   zap.NewNop(),
	})

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("准备数据失败: %v", err)
		}
	}
	tid := env.actor.TenantID
	must(repo.Tenant.Create(ctx, &model.Tenant{TenantID: tid, Name: "Seguridad Austral", IsActive: true}))

	env.inst = &model.Installation{TenantID: tid, Name: "Mall Plaza Norte", IsActive: true}
	must(repo.Installation.Create(ctx, env.inst))
	env.post = &model.Post{TenantID: tid, Name: "Acceso Principal", IsActive: true}
	must(repo.Post.Create(ctx, env.post))
	env.role = &model.ServiceRole{TenantID: tid, Name: "4x4 Día", WorkDays: 4, RestDays: 4, StartTime: "08:00", EndTime: "20:00", IsActive: true}
	must(repo.ServiceRole.Create(ctx, env.role))

	for i, key := range []string{"A", "B", "C", "X"} {
		g := &model.Guard{
			TenantID:  tid,
			RUT:       fmt.Sprintf("1000000%d-%d", i, i),
			FirstName: "Guardia",
			LastName:  key,
			IsActive:  key != "X",
		}
		g.SearchName = searchName(g)
		must(repo.Guard.Create(ctx, g))
		env.guards[key] = g
	}
	return env
}

func (e *workflowEnv) gid(key string) string { return e.guards[key].GuardID }

func (e *workflowEnv) createAssignment(t *testing.T, headcount int, guards ...string) *dto.AssignmentResponse {
	t.Helper()
	ids := make([]string, len(guards))
	for i, k := range guards {
		if k != "" {
			ids[i] = e.gid(k)
		}
	}
	a, err := e.svc.Assignment.Create(context.Background(), e.actor, &dto.CreateAssignmentRequest{
		InstallationID: e.inst.InstallationID,
		PostID:         e.post.PostID,
		RoleID:         e.role.RoleID,
		RequiredGuards: headcount,
		Guards:         ids,
	})
	if err != nil {
		t.Fatalf("创建编制失败: %v", err)
	}
	return a
}

func (e *workflowEnv) gaps(t *testing.T, status string) []dto.GapResponse {
	t.Helper()
	list, _, err := e.svc.Coverage.List(context.Background(), e.actor, &dto.GapListRequest{Status: status})
	if err != nil {
		t.Fatalf("查询 PPC 失败: %v", err)
	}
	return list
}

func (e *workflowEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("计数失败: %v", err)
	}
	return n
}

// ── 编制与席位 ──

func TestWorkflow_CreateOpensGapsForPendingSlots(t *testing.T) {
	env := setupWorkflow(t, false)

	a := env.createAssignment(t, 3, "A", "B")
	if a.FilledSlots != 2 || a.PendingSlots != 1 {
		t.Fatalf("期望 2 已填 1 空缺，实际 %d/%d", a.FilledSlots, a.PendingSlots)
	}
	if len(a.Slots) != 3 {
		t.Fatalf("期望 3 个席位，实际=%d", len(a.Slots))
	}
	for i, s := range a.Slots {
		if s.SlotIndex != i {
			t.Errorf("席位下标应连续，位置 %d 实际=%d", i, s.SlotIndex)
		}
	}
	if !strings.HasPrefix(a.Slots[0].Notes, "Asignado a Guardia A el ") {
		t.Errorf("已绑定席位应带自动备注，实际=%q", a.Slots[0].Notes)
	}
	if a.InstallationName != "Mall Plaza Norte" || a.RoleName != "4x4 Día" {
		t.Errorf("名称应联查目录，实际=%s / %s", a.InstallationName, a.RoleName)
	}

	open := env.gaps(t, model.GapPending)
	if len(open) != 1 || open[0].SlotIndex != 2 {
		t.Fatalf("期望席位 2 有 1 条 pendiente，实际=%+v", open)
	}
	if open[0].PostName != "Acceso Principal" {
		t.Errorf("PPC 应带岗位名称，实际=%s", open[0].PostName)
	}
	if !env.notify.has(ResourceAssignment, "created") || !env.notify.has(ResourceCoverageGap, "changed") {
		t.Errorf("提交后应发送变更提示，实际=%v", env.notify.events)
	}
	if n := env.count(t, &model.ActivityLog{}); n != 1 {
		t.Errorf("期望 1 条操作日志，实际=%d", n)
	}
}

func TestWorkflow_CreateValidation(t *testing.T) {
	env := setupWorkflow(t, false)
	ctx := context.Background()

	_, err := env.svc.Assignment.Create(ctx, env.actor, &dto.CreateAssignmentRequest{
		InstallationID: env.inst.InstallationID, PostID: env.post.PostID, RoleID: env.role.RoleID,
		RequiredGuards: 1, Guards: []string{env.gid("A"), env.gid("B")},
	})
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("选择多于人数应返回 ValidationError，实际: %v", err)
	}

	_, err = env.svc.Assignment.Create(ctx, env.actor, &dto.CreateAssignmentRequest{
		InstallationID: uuid.NewString(), PostID: env.post.PostID, RoleID: env.role.RoleID, RequiredGuards: 1,
	})
	if !errors.Is(err, ErrInstallationNotFound) {
		t.Errorf("安装点不存在应返回 ErrInstallationNotFound，实际: %v", err)
	}

	_, err = env.svc.Assignment.Create(ctx, env.actor, &dto.CreateAssignmentRequest{
		InstallationID: env.inst.InstallationID, PostID: env.post.PostID, RoleID: env.role.RoleID,
		RequiredGuards: 2, Guards: []string{env.gid("X")},
	})
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("停用保安应返回 ValidationError，实际: %v", err)
	}

	if n := env.count(t, &model.Assignment{}); n != 0 {
		t.Errorf("校验失败不应留下编制，实际=%d", n)
	}
}

func TestWorkflow_UpdateSameSelectionsIsNoop(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 3, "A", "B")

	guards := []string{env.gid("A"), env.gid("B")}
	updated, err := env.svc.Assignment.Update(context.Background(), env.actor, a.ID, &dto.UpdateAssignmentRequest{Guards: &guards})
	if err != nil {
		t.Fatalf("更新应成功: %v", err)
	}
	for i := range a.Slots {
		if updated.Slots[i].ID != a.Slots[i].ID {
			t.Errorf("席位 %d 行 ID 不应变化", i)
		}
	}
	if n := len(env.gaps(t, "")); n != 1 {
		t.Errorf("重复提交不应新增 PPC，实际=%d", n)
	}
}

func TestWorkflow_HeadcountReductionJustifiesGap(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 3, "A", "B")

	two := 2
	updated, err := env.svc.Assignment.Update(context.Background(), env.actor, a.ID, &dto.UpdateAssignmentRequest{RequiredGuards: &two})
	if err != nil {
		t.Fatalf("减员应成功: %v", err)
	}
	if len(updated.Slots) != 2 || updated.FilledSlots != 2 {
		t.Fatalf("期望保留 A/B 两个席位，实际=%+v", updated.Slots)
	}

	justified := env.gaps(t, model.GapJustified)
	if len(justified) != 1 || !strings.Contains(justified[0].Notes, "Cupo eliminado") {
		t.Fatalf("删除的席位应关闭为 justificado，实际=%+v", justified)
	}
	if justified[0].ResolvedAt == nil {
		t.Error("justificado 应记录 resolved_at")
	}
	if n := len(env.gaps(t, model.GapPending)); n != 0 {
		t.Errorf("不应留下 pendiente，实际=%d", n)
	}
}

func TestWorkflow_HeadcountIncreaseKeepsSelections(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 2, "A", "B")

	four := 4
	updated, err := env.svc.Assignment.Update(context.Background(), env.actor, a.ID, &dto.UpdateAssignmentRequest{RequiredGuards: &four})
	if err != nil {
		t.Fatalf("增员应成功: %v", err)
	}
	if updated.FilledSlots != 2 || updated.PendingSlots != 2 {
		t.Errorf("期望 2 已填 2 空缺，实际 %d/%d", updated.FilledSlots, updated.PendingSlots)
	}
	if updated.Slots[0].ID != a.Slots[0].ID || updated.Slots[1].ID != a.Slots[1].ID {
		t.Error("原有席位行应保留")
	}
	if n := len(env.gaps(t, model.GapPending)); n != 2 {
		t.Errorf("新增席位应各开 1 条 PPC，实际=%d", n)
	}
}

func TestWorkflow_ReplaceSelectionCoversGap(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 2, "A", "B")
	ctx := context.Background()

	onlyA := []string{env.gid("A")}
	if _, err := env.svc.Assignment.Update(ctx, env.actor, a.ID, &dto.UpdateAssignmentRequest{Guards: &onlyA}); err != nil {
		t.Fatalf("取消 B 应成功: %v", err)
	}
	open := env.gaps(t, model.GapPending)
	if len(open) != 1 || open[0].SlotIndex != 1 {
		t.Fatalf("席位 1 应开出 PPC，实际=%+v", open)
	}

	withC := []string{env.gid("A"), env.gid("C")}
	updated, err := env.svc.Assignment.Update(ctx, env.actor, a.ID, &dto.UpdateAssignmentRequest{Guards: &withC})
	if err != nil {
		t.Fatalf("绑定 C 应成功: %v", err)
	}
	covered := env.gaps(t, model.GapCovered)
	if len(covered) != 1 {
		t.Fatalf("期望 1 条 cubierto，实际=%d", len(covered))
	}
	if covered[0].GuardLinkageID == nil || *covered[0].GuardLinkageID != updated.Slots[1].ID {
		t.Error("cubierto 应关联席位 1 的行")
	}
	if !strings.Contains(covered[0].Notes, "Cubierto por Guardia C el ") {
		t.Errorf("应追加补岗备注，实际=%q", covered[0].Notes)
	}
}

func TestWorkflow_DeleteCascades(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 3, "A")
	ctx := context.Background()

	if err := env.svc.Assignment.Delete(ctx, env.actor, a.ID); err != nil {
		t.Fatalf("删除应成功: %v", err)
	}
	if _, err := env.svc.Assignment.GetByID(ctx, env.actor, a.ID); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("删除后应返回 ErrAssignmentNotFound，实际: %v", err)
	}
	if n := env.count(t, &model.GuardLinkage{}); n != 0 {
		t.Errorf("席位应一并删除，实际=%d", n)
	}
	if n := env.count(t, &model.CoverageGap{}); n != 0 {
		t.Errorf("PPC 应一并删除，实际=%d", n)
	}
	if err := env.svc.Assignment.Delete(ctx, env.actor, a.ID); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("重复删除应返回 ErrAssignmentNotFound，实际: %v", err)
	}
}

func TestWorkflow_FailureRollsBackEverything(t *testing.T) {
	env := setupWorkflow(t, false)

	// 操作日志写入失败发生在编制、席位、PPC 写入之后
	if err := env.db.Migrator().DropTable(&model.ActivityLog{}); err != nil {
		t.Fatalf("删除日志表失败: %v", err)
	}

	_, err := env.svc.Assignment.Create(context.Background(), env.actor, &dto.CreateAssignmentRequest{
		InstallationID: env.inst.InstallationID, PostID: env.post.PostID, RoleID: env.role.RoleID,
		RequiredGuards: 3, Guards: []string{env.gid("A")},
	})
	if err == nil {
		t.Fatal("日志写入失败时创建应失败")
	}
	for _, m := range []interface{}{&model.Assignment{}, &model.GuardLinkage{}, &model.CoverageGap{}} {
		if n := env.count(t, m); n != 0 {
			t.Errorf("%T 应全部回滚，实际=%d", m, n)
		}
	}
	if env.notify.has(ResourceAssignment, "created") {
		t.Error("回滚后不应发送变更提示")
	}
}

func TestWorkflow_TenantIsolation(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 1, "A")

	other := Actor{UserID: uuid.NewString(), TenantID: uuid.NewString()}
	if _, err := env.svc.Assignment.GetByID(context.Background(), other, a.ID); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("其他租户应看不到编制，实际: %v", err)
	}
	list, _, err := env.svc.Coverage.List(context.Background(), other, &dto.GapListRequest{})
	if err != nil || len(list) != 0 {
		t.Errorf("其他租户 PPC 列表应为空，实际=%d err=%v", len(list), err)
	}
}

// ── 席位绑定 / 释放 ──

func TestWorkflow_ReleaseAndBindSlot(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 2, "A", "B")
	ctx := context.Background()

	released, err := env.svc.GuardLinkage.Release(ctx, env.actor, a.Slots[0].ID)
	if err != nil {
		t.Fatalf("释放应成功: %v", err)
	}
	if released.Status != model.LinkagePending || released.GuardID != nil {
		t.Errorf("释放后席位应为空缺，实际=%+v", released)
	}
	if n := len(env.gaps(t, model.GapPending)); n != 1 {
		t.Fatalf("释放应开出 1 条 PPC，实际=%d", n)
	}

	idx := 0
	_, err = env.svc.GuardLinkage.Bind(ctx, env.actor, &dto.BindSlotRequest{AssignmentID: a.ID, SlotIndex: &idx, GuardID: env.gid("B")})
	if !errors.Is(err, ErrGuardAlreadyInAssignment) {
		t.Errorf("同一编制重复保安应返回冲突，实际: %v", err)
	}

	bound, err := env.svc.GuardLinkage.Bind(ctx, env.actor, &dto.BindSlotRequest{AssignmentID: a.ID, SlotIndex: &idx, GuardID: env.gid("C")})
	if err != nil {
		t.Fatalf("绑定应成功: %v", err)
	}
	if bound.ID != a.Slots[0].ID {
		t.Error("绑定应复用原席位行")
	}
	if n := len(env.gaps(t, model.GapCovered)); n != 1 {
		t.Errorf("绑定后 PPC 应为 cubierto，实际=%d", n)
	}

	_, err = env.svc.GuardLinkage.Bind(ctx, env.actor, &dto.BindSlotRequest{AssignmentID: a.ID, SlotIndex: &idx, GuardID: env.gid("A")})
	if !errors.Is(err, ErrSlotNotPending) {
		t.Errorf("已有保安的席位应返回 ErrSlotNotPending，实际: %v", err)
	}

	slots, err := env.svc.GuardLinkage.List(ctx, env.actor, a.ID)
	if err != nil || len(slots) != 2 {
		t.Errorf("席位总数应保持 2，实际=%d err=%v", len(slots), err)
	}
}

// ── PPC ──

func TestWorkflow_ResolveGap(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 3, "A", "B")
	ctx := context.Background()
	gap := env.gaps(t, model.GapPending)[0]

	if _, err := env.svc.Coverage.AssignGuard(ctx, env.actor, gap.ID, &dto.ResolveGapRequest{GuardID: env.gid("A")}); !errors.Is(err, ErrGuardAlreadyInAssignment) {
		t.Errorf("已在编制中的保安应返回冲突，实际: %v", err)
	}
	if _, err := env.svc.Coverage.AssignGuard(ctx, env.actor, gap.ID, &dto.ResolveGapRequest{GuardID: env.gid("X")}); err == nil {
		t.Error("停用保安不能补岗")
	}

	resolved, err := env.svc.Coverage.AssignGuard(ctx, env.actor, gap.ID, &dto.ResolveGapRequest{GuardID: env.gid("C")})
	if err != nil {
		t.Fatalf("补岗应成功: %v", err)
	}
	if resolved.Status != model.GapCovered || resolved.ResolvedAt == nil {
		t.Errorf("期望 cubierto 且有 resolved_at，实际=%+v", resolved)
	}
	if resolved.GuardName != "Guardia C" {
		t.Errorf("期望补岗保安 Guardia C，实际=%s", resolved.GuardName)
	}

	after, _ := env.svc.Assignment.GetByID(ctx, env.actor, a.ID)
	if after.FilledSlots != 3 || len(after.Slots) != 3 {
		t.Errorf("补岗后应 3 席全满且不新增行，实际 filled=%d slots=%d", after.FilledSlots, len(after.Slots))
	}
	if resolved.GuardLinkageID == nil || *resolved.GuardLinkageID != after.Slots[2].ID {
		t.Error("PPC 应关联被补上的席位")
	}
	if after.Slots[2].ID != a.Slots[2].ID {
		t.Error("补岗应复用原空缺席位行")
	}

	if _, err := env.svc.Coverage.AssignGuard(ctx, env.actor, gap.ID, &dto.ResolveGapRequest{GuardID: env.gid("C")}); !errors.Is(err, ErrGapNotPending) {
		t.Errorf("已关闭的 PPC 再次补岗应返回 ErrGapNotPending，实际: %v", err)
	}
}

func TestWorkflow_ManualGapEdit(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 1, "A")
	ctx := context.Background()

	if _, err := env.svc.GuardLinkage.Release(ctx, env.actor, a.Slots[0].ID); err != nil {
		t.Fatalf("释放应成功: %v", err)
	}
	gap := env.gaps(t, model.GapPending)[0]

	justified := model.GapJustified
	note := "Cliente suspendió el servicio"
	got, err := env.svc.Coverage.Update(ctx, env.actor, gap.ID, &dto.UpdateGapRequest{Status: &justified, Notes: &note})
	if err != nil {
		t.Fatalf("手动关闭应成功: %v", err)
	}
	if got.Status != model.GapJustified || got.ResolvedAt == nil || got.Notes != note {
		t.Errorf("手动关闭结果错误: %+v", got)
	}

	// 重新绑定后再释放，同一席位开出新的 pendiente
	idx := 0
	if _, err := env.svc.GuardLinkage.Bind(ctx, env.actor, &dto.BindSlotRequest{AssignmentID: a.ID, SlotIndex: &idx, GuardID: env.gid("C")}); err != nil {
		t.Fatalf("绑定应成功: %v", err)
	}
	if _, err := env.svc.GuardLinkage.Release(ctx, env.actor, a.Slots[0].ID); err != nil {
		t.Fatalf("再次释放应成功: %v", err)
	}
	pending := model.GapPending
	if _, err := env.svc.Coverage.Update(ctx, env.actor, gap.ID, &dto.UpdateGapRequest{Status: &pending}); !errors.Is(err, ErrGapReopenConflict) {
		t.Errorf("同一席位已有 pendiente 时重新打开应冲突，实际: %v", err)
	}

	covered := model.GapCovered
	if _, err := env.svc.Coverage.Update(ctx, env.actor, gap.ID, &dto.UpdateGapRequest{Status: &covered}); err != nil {
		t.Errorf("宽松模式下允许无关联的 cubierto，实际: %v", err)
	}
}

func TestWorkflow_ClosedGapStaysClosed(t *testing.T) {
	env := setupWorkflow(t, false)
	a := env.createAssignment(t, 3, "A", "", "")
	ctx := context.Background()

	var slot1 dto.GapResponse
	for _, g := range env.gaps(t, model.GapPending) {
		if g.SlotIndex == 1 {
			slot1 = g
		}
	}
	if slot1.ID == "" {
		t.Fatal("席位 1 应有 pendiente")
	}
	justified := model.GapJustified
	if _, err := env.svc.Coverage.Update(ctx, env.actor, slot1.ID, &dto.UpdateGapRequest{Status: &justified}); err != nil {
		t.Fatalf("手动关闭应成功: %v", err)
	}

	// 在其他席位绑定保安不应重新打开已关闭的 PPC
	idx := 2
	if _, err := env.svc.GuardLinkage.Bind(ctx, env.actor, &dto.BindSlotRequest{AssignmentID: a.ID, SlotIndex: &idx, GuardID: env.gid("B")}); err != nil {
		t.Fatalf("绑定应成功: %v", err)
	}
	assertClosed := func(stage string) {
		t.Helper()
		if open := env.gaps(t, model.GapPending); len(open) != 0 {
			t.Errorf("%s: 不应存在 pendiente，实际=%+v", stage, open)
		}
		for _, g := range env.gaps(t, "") {
			if g.ID == slot1.ID && g.Status != model.GapJustified {
				t.Errorf("%s: 席位 1 的 PPC 应保持 justificado，实际=%s", stage, g.Status)
			}
		}
	}
	assertClosed("绑定其他席位")

	// 原样重复提交同样不应改动 PPC
	before := len(env.gaps(t, ""))
	guards := []string{env.gid("A"), "", env.gid("B")}
	if _, err := env.svc.Assignment.Update(ctx, env.actor, a.ID, &dto.UpdateAssignmentRequest{Guards: &guards}); err != nil {
		t.Fatalf("更新应成功: %v", err)
	}
	assertClosed("重复提交")
	if n := len(env.gaps(t, "")); n != before {
		t.Errorf("重复提交不应新增 PPC，期望=%d 实际=%d", before, n)
	}
}

func TestWorkflow_StrictCoveredRequiresLinkage(t *testing.T) {
	env := setupWorkflow(t, true)
	env.createAssignment(t, 1)
	gap := env.gaps(t, model.GapPending)[0]

	covered := model.GapCovered
	_, err := env.svc.Coverage.Update(context.Background(), env.actor, gap.ID, &dto.UpdateGapRequest{Status: &covered})
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("严格模式下应返回 ValidationError，实际: %v", err)
	}
	if env.gaps(t, model.GapPending)[0].Status != model.GapPending {
		t.Error("被拒绝的修改不应落库")
	}
}

func TestWorkflow_GapListDateRangeValidation(t *testing.T) {
	env := setupWorkflow(t, false)

	_, _, err := env.svc.Coverage.List(context.Background(), env.actor, &dto.GapListRequest{DateFrom: "2026-05-02", DateTo: "2026-05-01"})
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("开始日期晚于结束日期应返回 ValidationError，实际: %v", err)
	}
	if _, _, err := env.svc.Coverage.List(context.Background(), env.actor, &dto.GapListRequest{DateFrom: "2026-05-01", DateTo: "2026-05-01"}); err != nil {
		t.Errorf("同一天应合法，实际: %v", err)
	}
}

func TestWorkflow_ExportGaps(t *testing.T) {
	env := setupWorkflow(t, false)
	env.createAssignment(t, 2, "A")

	body, filename, err := env.svc.Coverage.Export(context.Background(), env.actor, &dto.GapListRequest{})
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应为 xlsx，实际=%s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("导出内容应为合法 xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("PPC")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 行，实际=%d", len(rows))
	}
	if rows[0][0] != "Instalación" || rows[1][0] != "Mall Plaza Norte" || rows[1][4] != model.GapPending {
		t.Errorf("导出内容错误: %v", rows)
	}
}

// ── 轮班岗位 ──

func (e *workflowEnv) generatePosts(t *testing.T, n int) []dto.ShiftPostResponse {
	t.Helper()
	posts, err := e.svc.ShiftPost.Generate(context.Background(), e.actor, &dto.GeneratePostsRequest{
		InstallationID: e.inst.InstallationID, RoleID: e.role.RoleID, Count: n,
	})
	if err != nil {
		t.Fatalf("生成岗位失败: %v", err)
	}
	return posts
}

func (e *workflowEnv) assignPost(postID, guardKey string) (*dto.AssignPostResult, error) {
	return e.svc.ShiftPost.AssignGuard(context.Background(), e.actor, postID, &dto.AssignPostGuardRequest{
		GuardiaID: e.gid(guardKey), PuestoID: postID,
		InstalacionID: e.inst.InstallationID, RolID: e.role.RoleID,
	})
}

func postOrder(posts []dto.ShiftPostResponse) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestWorkflow_GeneratePosts(t *testing.T) {
	env := setupWorkflow(t, false)

	posts := env.generatePosts(t, 3)
	if len(posts) != 3 {
		t.Fatalf("期望 3 个岗位，实际=%d", len(posts))
	}
	for i, p := range posts {
		if !p.IsGap || p.Name != postLabel(i+1) {
			t.Errorf("岗位 %d 应为空缺且名为 %s，实际=%+v", i, postLabel(i+1), p)
		}
	}

	more := env.generatePosts(t, 2)
	if len(more) != 5 || more[4].Name != "Puesto #5" {
		t.Errorf("追加后应编号到 Puesto #5，实际=%+v", more)
	}
}

func TestWorkflow_AssignPostRenumbers(t *testing.T) {
	env := setupWorkflow(t, false)
	posts := env.generatePosts(t, 3)
	p1, p2, p3 := posts[0].ID, posts[1].ID, posts[2].ID

	res, err := env.assignPost(p1, "A")
	if err != nil {
		t.Fatalf("指派 A 应成功: %v", err)
	}
	if !res.Success || res.Posts[0].ID != p1 || res.Posts[0].Name != "Puesto #1" {
		t.Fatalf("P1 应保持第一位，实际=%v", postOrder(res.Posts))
	}

	// [P1(A), P2, P3]，B 指派到 P3
	res, err = env.assignPost(p3, "B")
	if err != nil {
		t.Fatalf("指派 B 应成功: %v", err)
	}
	want := []string{p3, p1, p2}
	got := postOrder(res.Posts)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("期望顺序 %v，实际 %v", want, got)
		}
		if res.Posts[i].Name != postLabel(i+1) {
			t.Errorf("位置 %d 名称应为 %s，实际=%s", i+1, postLabel(i+1), res.Posts[i].Name)
		}
	}
	if res.Posts[0].GuardName != "Guardia B" || res.Posts[0].AssignedAt == nil {
		t.Errorf("P3 应显示保安 B 与指派时间，实际=%+v", res.Posts[0])
	}
	if n := env.count(t, &model.ActivityLog{}); n < 3 {
		t.Errorf("生成与两次指派都应写日志，实际=%d", n)
	}
}

func TestWorkflow_AssignPostConflictsLeaveNoTrace(t *testing.T) {
	env := setupWorkflow(t, false)
	posts := env.generatePosts(t, 2)
	p1, p2 := posts[0].ID, posts[1].ID

	if _, err := env.assignPost(p1, "A"); err != nil {
		t.Fatalf("指派 A 应成功: %v", err)
	}
	before := env.count(t, &model.ActivityLog{})

	if _, err := env.assignPost(p2, "A"); !errors.Is(err, ErrGuardBusy) {
		t.Errorf("保安已在岗应返回 ErrGuardBusy，实际: %v", err)
	}
	if _, err := env.assignPost(p1, "B"); !errors.Is(err, ErrShiftPostHasGuard) {
		t.Errorf("岗位已有保安应返回 ErrShiftPostHasGuard，实际: %v", err)
	}
	if _, err := env.assignPost(uuid.NewString(), "B"); !errors.Is(err, ErrShiftPostNotFound) {
		t.Errorf("岗位不存在应返回 ErrShiftPostNotFound，实际: %v", err)
	}
	if _, err := env.assignPost(p2, "X"); err == nil {
		t.Error("停用保安不能上岗")
	}

	_, err := env.svc.ShiftPost.AssignGuard(context.Background(), env.actor, p2, &dto.AssignPostGuardRequest{
		GuardiaID: env.gid("B"), PuestoID: p2, InstalacionID: uuid.NewString(),
	})
	if !errors.Is(err, ErrShiftPostParentMismatch) {
		t.Errorf("安装点不符应返回 ErrShiftPostParentMismatch，实际: %v", err)
	}
	_, err = env.svc.ShiftPost.AssignGuard(context.Background(), env.actor, p2, &dto.AssignPostGuardRequest{
		GuardiaID: env.gid("B"), PuestoID: p1,
	})
	if _, ok := pkgerrors.AsValidation(err); !ok {
		t.Errorf("puesto_id 与路径不一致应返回 ValidationError，实际: %v", err)
	}

	list, err := env.svc.ShiftPost.List(context.Background(), env.actor, &dto.ShiftPostListRequest{InstallationID: env.inst.InstallationID})
	if err != nil {
		t.Fatalf("列表应成功: %v", err)
	}
	if list[1].ID != p2 || !list[1].IsGap || list[1].GuardID != nil || list[1].Name != "Puesto #2" {
		t.Errorf("失败的指派不应修改 P2，实际=%+v", list[1])
	}
	if after := env.count(t, &model.ActivityLog{}); after != before {
		t.Errorf("失败的指派不应写日志，前=%d 后=%d", before, after)
	}
}

func TestWorkflow_UnassignPost(t *testing.T) {
	env := setupWorkflow(t, false)
	posts := env.generatePosts(t, 3)
	p1, p2, p3 := posts[0].ID, posts[1].ID, posts[2].ID
	if _, err := env.assignPost(p1, "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.assignPost(p3, "B"); err != nil {
		t.Fatal(err)
	}

	// 当前顺序 P3(B) P1(A) P2
	res, err := env.svc.ShiftPost.UnassignGuard(context.Background(), env.actor, p3)
	if err != nil {
		t.Fatalf("解除应成功: %v", err)
	}
	want := []string{p1, p3, p2}
	got := postOrder(res.Posts)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("期望顺序 %v，实际 %v", want, got)
		}
	}
	if !res.Posts[1].IsGap {
		t.Error("P3 应回到空缺")
	}

	if _, err := env.svc.ShiftPost.UnassignGuard(context.Background(), env.actor, p3); !errors.Is(err, ErrShiftPostIsGap) {
		t.Errorf("空缺岗位解除应返回 ErrShiftPostIsGap，实际: %v", err)
	}
	if _, err := env.assignPost(p2, "B"); err != nil {
		t.Errorf("解除后 B 应可重新上岗: %v", err)
	}
}

func TestWorkflow_GuardCalendar(t *testing.T) {
	env := setupWorkflow(t, false)
	posts := env.generatePosts(t, 1)
	if _, err := env.assignPost(posts[0].ID, "A"); err != nil {
		t.Fatal(err)
	}

	body, filename, err := env.svc.Guard.Calendar(context.Background(), env.actor, env.gid("A"), &dto.GuardCalendarRequest{Days: 8})
	if err != nil {
		t.Fatalf("导出日历应成功: %v", err)
	}
	if filename != "turnos_"+env.guards["A"].RUT+".ics" {
		t.Errorf("文件名错误: %s", filename)
	}
	// 4x4 轮班，自指派当天起 8 天内上班 4 天
	if n := strings.Count(string(body), "BEGIN:VEVENT"); n != 4 {
		t.Errorf("期望 4 个班次，实际=%d", n)
	}

	if _, _, err := env.svc.Guard.Calendar(context.Background(), env.actor, env.gid("A"), &dto.GuardCalendarRequest{Days: 90}); err == nil {
		t.Error("超过最大天数应返回错误")
	}
}

// ── 保安检索 ──

func TestWorkflow_GuardSearchIgnoresAccents(t *testing.T) {
	env := setupWorkflow(t, false)
	ctx := context.Background()

	if _, err := env.svc.Guard.Create(ctx, env.actor, &dto.CreateGuardRequest{
		RUT: "12.345.678-5", FirstName: "José", LastName: "Muñoz",
	}); err != nil {
		t.Fatalf("创建保安应成功: %v", err)
	}
	if _, err := env.svc.Guard.Create(ctx, env.actor, &dto.CreateGuardRequest{
		RUT: "12345678-5", FirstName: "Otro", LastName: "Nombre",
	}); !errors.Is(err, ErrGuardRUTExists) {
		t.Errorf("RUT 重复应返回 ErrGuardRUTExists，实际: %v", err)
	}

	list, total, err := env.svc.Guard.List(ctx, env.actor, &dto.CatalogListRequest{Q: "JOSE munoz"})
	if err != nil {
		t.Fatalf("检索应成功: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].RUT != "12345678-5" {
		t.Errorf("期望检索到 1 名保安，实际 total=%d list=%+v", total, list)
	}
}

// ── 看板 ──

func TestWorkflow_DashboardKPIs(t *testing.T) {
	env := setupWorkflow(t, false)
	env.createAssignment(t, 3, "A", "B")
	posts := env.generatePosts(t, 2)
	if _, err := env.assignPost(posts[0].ID, "C"); err != nil {
		t.Fatal(err)
	}

	kpi, err := env.svc.Dashboard.KPIs(context.Background(), env.actor, &dto.DashboardRequest{})
	if err != nil {
		t.Fatalf("KPIs 应成功: %v", err)
	}
	if kpi.ActiveAssignments != 1 || kpi.RequiredSlots != 3 || kpi.FilledSlots != 2 {
		t.Errorf("编制指标错误: %+v", kpi)
	}
	if kpi.PendingGaps != 1 || kpi.CoveredGaps != 0 {
		t.Errorf("PPC 指标错误: %+v", kpi)
	}
	if kpi.ShiftPostsTotal != 2 || kpi.ShiftPostsFilled != 1 {
		t.Errorf("岗位指标错误: %+v", kpi)
	}
	if kpi.CoveragePct != 66.7 || !kpi.Alert {
		t.Errorf("覆盖率 66.7 低于默认阈值 80 应告警，实际 pct=%v alert=%v", kpi.CoveragePct, kpi.Alert)
	}
	if kpi.RefreshSeconds != model.DefaultDashboardRefreshSeconds {
		t.Errorf("期望默认刷新间隔，实际=%d", kpi.RefreshSeconds)
	}
}
