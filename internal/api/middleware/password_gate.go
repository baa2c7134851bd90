package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/errcode"
)

const passwordChangeRequiredMessage = "password change required"

// RequirePasswordChangeCompletedMiddleware 阻止仍在使用初始密码的管理员执行审核操作。
// 仅依赖 access token 内的 must_change_password 声明，避免每次请求都查库。
func RequirePasswordChangeCompletedMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if value, ok := c.Get(mustChangePasswordKey); ok {
			if mustChange, ok := value.(bool); ok && mustChange {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": passwordChangeRequiredMessage,
					"code":  errcode.CodeUnauthorized,
				})
				return
			}
		}
		c.Next()
	}
}
