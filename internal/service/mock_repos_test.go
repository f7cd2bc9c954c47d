package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"gardops/backend/internal/model"
	"gardops/backend/internal/repository"
)

// ── Mock TenantRepository ──

type mockTenantRepo struct {
	tenants map[string]*model.Tenant
}

func newMockTenantRepo() *mockTenantRepo {
	return &mockTenantRepo{tenants: make(map[string]*model.Tenant)}
}

func (m *mockTenantRepo) Create(_ context.Context, t *model.Tenant) error {
	t.TenantID = model.NewID(t.TenantID)
	m.tenants[t.TenantID] = t
	return nil
}

func (m *mockTenantRepo) GetByID(_ context.Context, id string) (*model.Tenant, error) {
	if t, ok := m.tenants[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.UserID = model.NewID(user.UserID)
	user.Email = strings.ToLower(user.Email)
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock InstallationRepository ──

type mockInstallationRepo struct {
	items map[string]*model.Installation
}

func newMockInstallationRepo() *mockInstallationRepo {
	return &mockInstallationRepo{items: make(map[string]*model.Installation)}
}

func (m *mockInstallationRepo) Create(_ context.Context, inst *model.Installation) error {
	inst.InstallationID = model.NewID(inst.InstallationID)
	m.items[inst.InstallationID] = inst
	return nil
}

func (m *mockInstallationRepo) GetByID(_ context.Context, tenantID, id string) (*model.Installation, error) {
	if i, ok := m.items[id]; ok && i.TenantID == tenantID {
		return i, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstallationRepo) List(_ context.Context, tenantID string, f repository.CatalogFilter) ([]model.Installation, int64, error) {
	var result []model.Installation
	for _, i := range m.items {
		if i.TenantID != tenantID || (!f.IncludeInactive && !i.IsActive) {
			continue
		}
		result = append(result, *i)
	}
	return result, int64(len(result)), nil
}

func (m *mockInstallationRepo) Update(_ context.Context, inst *model.Installation) error {
	m.items[inst.InstallationID] = inst
	return nil
}

func (m *mockInstallationRepo) Delete(_ context.Context, tenantID, id, _ string) error {
	if i, ok := m.items[id]; !ok || i.TenantID != tenantID {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

// ── Mock ServiceRoleRepository ──

type mockServiceRoleRepo struct {
	items map[string]*model.ServiceRole
}

func newMockServiceRoleRepo() *mockServiceRoleRepo {
	return &mockServiceRoleRepo{items: make(map[string]*model.ServiceRole)}
}

func (m *mockServiceRoleRepo) Create(_ context.Context, role *model.ServiceRole) error {
	role.RoleID = model.NewID(role.RoleID)
	m.items[role.RoleID] = role
	return nil
}

func (m *mockServiceRoleRepo) GetByID(_ context.Context, tenantID, id string) (*model.ServiceRole, error) {
	if r, ok := m.items[id]; ok && r.TenantID == tenantID {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockServiceRoleRepo) List(_ context.Context, tenantID string, f repository.CatalogFilter) ([]model.ServiceRole, int64, error) {
	var result []model.ServiceRole
	for _, r := range m.items {
		if r.TenantID != tenantID || (!f.IncludeInactive && !r.IsActive) {
			continue
		}
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (m *mockServiceRoleRepo) Update(_ context.Context, role *model.ServiceRole) error {
	m.items[role.RoleID] = role
	return nil
}

func (m *mockServiceRoleRepo) Delete(_ context.Context, tenantID, id, _ string) error {
	if r, ok := m.items[id]; !ok || r.TenantID != tenantID {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

// ── Mock TenantSettingRepository ──

type mockTenantSettingRepo struct {
	settings map[string]*model.TenantSetting
	saves    int
}

func newMockTenantSettingRepo() *mockTenantSettingRepo {
	return &mockTenantSettingRepo{settings: make(map[string]*model.TenantSetting)}
}

func (m *mockTenantSettingRepo) Get(_ context.Context, tenantID string) (*model.TenantSetting, error) {
	if s, ok := m.settings[tenantID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTenantSettingRepo) Save(_ context.Context, s *model.TenantSetting) error {
	cp := *s
	m.settings[s.TenantID] = &cp
	m.saves++
	return nil
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct {
	logs []model.ActivityLog
}

func (m *mockActivityLogRepo) Create(_ context.Context, log *model.ActivityLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockActivityLogRepo) List(_ context.Context, tenantID string, f repository.ActivityFilter) ([]model.ActivityLog, int64, error) {
	var result []model.ActivityLog
	for _, l := range m.logs {
		if l.TenantID != tenantID || (f.Entity != "" && l.Entity != f.Entity) || (f.EntityID != "" && l.EntityID != f.EntityID) {
			continue
		}
		result = append(result, l)
	}
	return result, int64(len(result)), nil
}

// ── 测试辅助 ──

type mockRepos struct {
	tenants  *mockTenantRepo
	users    *mockUserRepo
	insts    *mockInstallationRepo
	roles    *mockServiceRoleRepo
	settings *mockTenantSettingRepo
	activity *mockActivityLogRepo
}

// newMockRepository 组装未绑定数据库的 Repository，Transaction 直接在其上执行
func newMockRepository() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		tenants:  newMockTenantRepo(),
		users:    newMockUserRepo(),
		insts:    newMockInstallationRepo(),
		roles:    newMockServiceRoleRepo(),
		settings: newMockTenantSettingRepo(),
		activity: &mockActivityLogRepo{},
	}
	repo := &repository.Repository{
		Tenant:        m.tenants,
		User:          m.users,
		Installation:  m.insts,
		ServiceRole:   m.roles,
		TenantSetting: m.settings,
		ActivityLog:   m.activity,
	}
	return repo, m
}

// recordingNotifier 记录所有变更提示
type recordingNotifier struct {
	events []string // "resource:action:id"
}

func (n *recordingNotifier) Notify(_ context.Context, _, resource, action, id string) {
	n.events = append(n.events, resource+":"+action+":"+id)
}

func (n *recordingNotifier) has(resource, action string) bool {
	prefix := resource + ":" + action + ":"
	for _, e := range n.events {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}
