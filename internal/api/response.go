package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api/middleware"
	"jobboard/internal/auth"
	"jobboard/internal/errcode"
)

// Error 写出统一的错误响应：{"error": 消息, "code": 错误码}。
func Error(c *gin.Context, status int, code errcode.Code, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": errcode.CodeUnauthorized})
}

func Unauthorized(c *gin.Context, msg string) {
	Error(c, http.StatusUnauthorized, errcode.CodeUnauthorized, msg)
}
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, errcode.CodeValidation, msg) }
func TooManyRequests(c *gin.Context, msg string) {
	Error(c, http.StatusTooManyRequests, errcode.CodeRateLimited, msg)
}
func Internal(c *gin.Context, msg string) {
	Error(c, http.StatusInternalServerError, errcode.CodeUpstream, msg)
}

// HTTPStatus 将错误码映射为 HTTP 状态码。
func HTTPStatus(code errcode.Code) int {
	switch code {
	case errcode.CodeValidation, errcode.CodeInvalidState:
		return http.StatusBadRequest
	case errcode.CodeNotFound:
		return http.StatusNotFound
	case errcode.CodeConflict:
		return http.StatusConflict
	case errcode.CodeUnauthorized:
		return http.StatusUnauthorized
	case errcode.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Fail 根据领域错误写出响应；5xx 错误的细节只写日志。
func Fail(c *gin.Context, err error) {
	code := errcode.CodeOf(err)
	message := "Internal server error"
	if e, ok := errcode.As(err); ok {
		message = e.Message
	}
	status := HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFromContext(c).Error("request failed",
			slog.String("code", string(code)),
			slog.Any("error", err),
		)
	}
	Error(c, status, code, message)
}

// bindJSON 解析请求体；optional 为 true 时允许空请求体。
func bindJSON(c *gin.Context, dst any, optional bool) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// pathID 解析路径中的数字 ID；无法解析时按记录不存在处理。
func pathID(c *gin.Context, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Fail(c, errcode.NotFound(notFound))
		return 0, false
	}
	return uint(id), true
}

// sessionOrAbort 取出当前管理员 Session。
func sessionOrAbort(c *gin.Context) (auth.Session, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return auth.Session{}, false
	}
	return session, true
}
