package auth

import "strings"

// Session 表示已通过令牌校验的管理员身份，显式传入每个后台操作。
type Session struct {
	AdminID  uint
	Username string
}

// Actor 返回操作人名称：优先使用请求中显式给出的名称，否则回落到会话用户名。
func (s Session) Actor(explicit string) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	if s.Username != "" {
		return s.Username
	}
	return "admin"
}
