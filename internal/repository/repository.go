package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Tenant        TenantRepository
	User          UserRepository
	Installation  InstallationRepository
	Post          PostRepository
	ServiceRole   ServiceRoleRepository
	Guard         GuardRepository
	Assignment    AssignmentRepository
	GuardLinkage  GuardLinkageRepository
	CoverageGap   CoverageGapRepository
	ShiftPost     ShiftPostRepository
	TenantSetting TenantSettingRepository
	ActivityLog   ActivityLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		Tenant:        NewTenantRepo(db),
		User:          NewUserRepo(db),
		Installation:  NewInstallationRepo(db),
		Post:          NewPostRepo(db),
		ServiceRole:   NewServiceRoleRepo(db),
		Guard:         NewGuardRepo(db),
		Assignment:    NewAssignmentRepo(db),
		GuardLinkage:  NewGuardLinkageRepo(db),
		CoverageGap:   NewCoverageGapRepo(db),
		ShiftPost:     NewShiftPostRepo(db),
		TenantSetting: NewTenantSettingRepo(db),
		ActivityLog:   NewActivityLogRepo(db),
	}
}

// Transaction 在同一数据库事务中执行 fn，fn 内必须使用传入的 tx 聚合。
// fn 返回错误时整体回滚，原始错误原样返回。
// 未绑定数据库的聚合（单元测试中手工组装的 mock）直接在当前聚合上执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// DB 返回底层连接（健康检查使用）
func (r *Repository) DB() *gorm.DB {
	return r.db
}
