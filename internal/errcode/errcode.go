package errcode

import (
	"errors"
	"fmt"
	"strings"
)

// Code 是写入错误响应 `code` 字段的稳定标识，调用方可据此分支处理。
type Code string

// 错误码约定：
// - validation_failed / invalid_status：请求参数缺失或非法（400）
// - not_found：引用的 ID 不存在（404）
// - conflict：名称重复（409）
// - unauthorized / rate_limited：会话或限流（401 / 429）
// - upload_failed / upstream_error：存储、数据库或外部服务不可用（500）
const (
	CodeValidation   Code = "validation_failed"
	CodeInvalidState Code = "invalid_status"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeRateLimited  Code = "rate_limited"
	CodeUpload       Code = "upload_failed"
	CodeUpstream     Code = "upstream_error"
)

// Error 是领域层返回的带错误码的错误。
type Error struct {
	Code    Code
	Message string
	// Fields 仅在缺少必填字段时填写，按字段声明顺序排列。
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation 构造缺少必填字段的错误，消息中列出全部字段。
func Validation(fields ...string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "Missing required fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

// BadRequest 构造通用的参数错误。
func BadRequest(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// InvalidStatus 构造无法识别的状态过滤值错误。
func InvalidStatus(raw string) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf("unrecognized status %q", raw)}
}

func NotFound(msg string) *Error { return &Error{Code: CodeNotFound, Message: msg} }
func Conflict(msg string) *Error { return &Error{Code: CodeConflict, Message: msg} }

// Upstream 包装数据库或外部服务错误；Message 会直接返回给客户端，细节只记录在日志中。
func Upstream(err error, msg string) *Error {
	return &Error{Code: CodeUpstream, Message: msg, Err: err}
}

// Upload 包装文件上传失败，与记录创建错误区分。
func Upload(err error, msg string) *Error {
	return &Error{Code: CodeUpload, Message: msg, Err: err}
}

// As 从错误链中取出 *Error。
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf 返回错误码；非领域错误视为 upstream_error。
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeUpstream
}
