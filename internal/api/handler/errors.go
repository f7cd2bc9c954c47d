package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gardops/backend/internal/service"
	pkgerrors "gardops/backend/pkg/errors"
	"gardops/backend/pkg/response"
)

// errorMapping 业务错误 → HTTP 状态与业务码，消息直接取错误文本
type errorMapping struct {
	err    error
	status int
	code   int
}

// 业务码：11xxx 认证，2xxxx 目录，3xxxx 编制与席位，4xxxx PPC，5xxxx 轮班岗位
var errorTable = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, 11001},
	{service.ErrUserDisabled, http.StatusForbidden, 11002},
	{service.ErrInvalidRefresh, http.StatusUnauthorized, 11003},
	{service.ErrUserNotFound, http.StatusNotFound, 11004},

	{service.ErrInstallationNotFound, http.StatusNotFound, 20001},
	{service.ErrPostNotFound, http.StatusNotFound, 20002},
	{service.ErrServiceRoleNotFound, http.StatusNotFound, 20003},
	{service.ErrGuardNotFound, http.StatusNotFound, 20004},
	{service.ErrGuardRUTExists, http.StatusConflict, 20005},

	{service.ErrAssignmentNotFound, http.StatusNotFound, 30001},
	{service.ErrLinkageNotFound, http.StatusNotFound, 30002},
	{service.ErrSlotNotPending, http.StatusConflict, 30003},
	{service.ErrGuardAlreadyInAssignment, http.StatusConflict, 30004},

	{service.ErrGapNotFound, http.StatusNotFound, 40001},
	{service.ErrGapNotPending, http.StatusConflict, 40002},
	{service.ErrGapReopenConflict, http.StatusConflict, 40003},

	{service.ErrShiftPostNotFound, http.StatusNotFound, 50001},
	{service.ErrShiftPostParentMismatch, http.StatusNotFound, 50002},
	{service.ErrShiftPostHasGuard, http.StatusBadRequest, 50003},
	{service.ErrShiftPostInactive, http.StatusBadRequest, 50004},
	{service.ErrShiftPostIsGap, http.StatusBadRequest, 50005},
	{service.ErrGuardBusy, http.StatusConflict, 50006},
}

// responder 各模块 Handler 共用的错误输出
type responder struct {
	exposeDetails bool // 500 时在 details 中回显底层错误
}

// fail 统一处理业务错误，未识别的错误按 500 返回
func (r responder) fail(c *gin.Context, err error) {
	if ve, ok := pkgerrors.AsValidation(err); ok {
		response.BadRequest(c, 10001, ve.Error())
		return
	}
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			response.Error(c, m.status, m.code, m.err.Error())
			return
		}
	}

	_ = c.Error(err)
	if r.exposeDetails {
		response.InternalErrorWithDetails(c, err)
		return
	}
	response.InternalError(c)
}

// badParams 绑定失败，body 超限时返回 413
func (r responder) badParams(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}
