package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPathNotFound       = errors.New("learning path not found")
	ErrStudyDataNotFound  = errors.New("study data not found")
	ErrStepOutOfRange     = errors.New("step index out of range")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrVerifyTokenInvalid = errors.New("验证链接无效或已过期")

	// 生成流程错误（对应前端表单级提示）
	ErrAPIKeyMissing   = errors.New("AI API key is not configured")
	ErrEmptyCompletion = errors.New("no valid learning path was generated")
)

// UpstreamError AI 接口返回非 2xx，携带上游错误信息
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI API error (status %d): %s", e.Status, e.Message)
}

// ParseError 模型输出不是合法的模块列表 JSON
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid module list in AI response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError 存储读写失败。对切换类操作，内存状态已回滚
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure on %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError 入库前的表单校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
