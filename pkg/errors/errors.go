package errors

import (
	"errors"
	"fmt"
)

// ValidationError 业务校验失败（映射为 HTTP 400）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation 创建校验错误
func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation 判断 err 链中是否包含 ValidationError
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
