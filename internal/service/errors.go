package service

import (
	"errors"

	"go.uber.org/zap"

	pkgerrors "gardops/backend/pkg/errors"
)

// domainErrors 可预期的业务错误，Handler 映射为 4xx，不记录错误日志
var domainErrors = []error{
	ErrInvalidCredentials, ErrUserNotFound, ErrUserDisabled, ErrInvalidRefresh,
	ErrInstallationNotFound, ErrPostNotFound, ErrServiceRoleNotFound,
	ErrGuardNotFound, ErrGuardRUTExists,
	ErrAssignmentNotFound, ErrLinkageNotFound, ErrSlotNotPending, ErrGuardAlreadyInAssignment,
	ErrGapNotFound, ErrGapNotPending, ErrGapReopenConflict,
	ErrShiftPostNotFound, ErrShiftPostParentMismatch, ErrShiftPostHasGuard, ErrShiftPostInactive,
	ErrShiftPostIsGap, ErrGuardBusy,
}

// IsDomainError 判断是否为业务错误（含 ValidationError）
func IsDomainError(err error) bool {
	if _, ok := pkgerrors.AsValidation(err); ok {
		return true
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// logUnexpected 仅记录非业务错误
func logUnexpected(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	if IsDomainError(err) {
		return
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
}
