package listing

import (
	"strings"

	"jobboard/internal/errcode"
)

// Status 是职位与求职者共用的审核状态。
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusInactive Status = "inactive"
)

// ParseStatus 解析查询参数中的状态，忽略大小写与首尾空白。
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusApproved, StatusRejected, StatusInactive:
		return s, true
	default:
		return "", false
	}
}

// ResolveStatusFilter 计算列表查询的状态过滤值。
// 空值默认 approved；无法识别的值在宽松模式下同样回落到 approved，严格模式下返回 invalid_status。
func ResolveStatusFilter(raw string, strict bool) (Status, error) {
	if strings.TrimSpace(raw) == "" {
		return StatusApproved, nil
	}
	if s, ok := ParseStatus(raw); ok {
		return s, nil
	}
	if strict {
		return "", errcode.InvalidStatus(raw)
	}
	return StatusApproved, nil
}
