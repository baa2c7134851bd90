package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobboard/internal/api/middleware"
	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/database"
)

const refreshTokenCookieName = "refresh_token"
const refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"

// AuthHandler 处理管理员登录、刷新、改密与退出。
type AuthHandler struct {
	db          *gorm.DB
	authService *auth.AuthService
	redis       redis.UniversalClient
	logger      *slog.Logger
	cfg         config.AuthConfig
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(db *gorm.DB, authService *auth.AuthService, redisClient redis.UniversalClient, logger *slog.Logger, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		db:          db,
		authService: authService,
		redis:       redisClient,
		logger:      logger,
		cfg:         cfg,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type tokenResponse struct {
	Message            string        `json:"message,omitempty"`
	Admin              *adminSummary `json:"admin,omitempty"`
	AccessToken        string        `json:"access_token"`
	TokenType          string        `json:"token_type"`
	ExpiresIn          int           `json:"expires_in"`
	MustChangePassword bool          `json:"must_change_password"`
}

// Login 校验口令并返回管理员信息与 Token。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, false) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		BadRequest(c, "Username and password are required")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.String("username", req.Username))
	username := strings.ToLower(req.Username)

	// 速率限制：每 IP+用户名 每小时固定次数
	rateKey := "rate:login:" + c.ClientIP() + ":" + username + ":" + time.Now().UTC().Format("2006010215")
	count, err := middleware.IncrWithTTL(ctx, h.redis, rateKey, time.Hour)
	if err != nil {
		count = 0
	}
	if count > int64(h.cfg.LoginRateLimitPerHour) {
		TooManyRequests(c, "rate limit exceeded")
		return
	}

	// 锁定检查
	if ttl, _ := h.redis.TTL(ctx, "lock:login:"+username).Result(); ttl > 0 {
		TooManyRequests(c, "account temporarily locked")
		return
	}

	var admin database.Admin
	if err := h.db.WithContext(ctx).Where("username = ?", req.Username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("login failed: admin not found")
			_ = h.incrementLoginFail(ctx, username)
			Unauthorized(c, "Invalid credentials")
			return
		}
		logger.Error("login query failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}

	if !h.authService.CheckPasswordHash(req.Password, admin.PasswordHash) {
		logger.Info("login failed: password mismatch", slog.Uint64("admin_id", uint64(admin.ID)))
		_ = h.incrementLoginFail(ctx, username)
		Unauthorized(c, "Invalid credentials")
		return
	}

	// 登录成功：清理失败计数
	_ = h.redis.Del(ctx, "lock:login:fail:"+username).Err()

	tokenPair, err := h.authService.GenerateTokenPair(sessionOf(admin), admin.MustChangePassword)
	if err != nil {
		logger.Error("generate token pair failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}

	logger.Info("admin logged in", slog.Uint64("admin_id", uint64(admin.ID)))
	h.replyWithTokenPair(c, tokenPair, admin, "Login successful")
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh 校验刷新令牌并颁发新的 TokenPair，旧令牌随即作废。
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		Unauthorized(c, "unauthorized")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	claims, ok := h.validRefreshClaims(c, refreshToken, logger)
	if !ok {
		return
	}

	key := refreshTokenBlacklistKeyPrefix + claims.ID
	if err := h.redis.Get(ctx, key).Err(); err == nil {
		logger.Info("refresh token revoked", slog.String("jti", claims.ID))
		Unauthorized(c, "unauthorized")
		return
	} else if !errors.Is(err, redis.Nil) {
		logger.Error("refresh token blacklist lookup failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}

	var admin database.Admin
	if err := h.db.WithContext(ctx).First(&admin, claims.AdminID).Error; err != nil {
		logger.Info("refresh admin not found", slog.Any("error", err))
		Unauthorized(c, "unauthorized")
		return
	}

	tokenPair, err := h.authService.GenerateTokenPair(sessionOf(admin), admin.MustChangePassword)
	if err != nil {
		logger.Error("refresh generate token pair failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}

	if err := h.revokeRefreshToken(ctx, key, claims.ExpiresAt); err != nil {
		logger.Error("refresh revoke old token failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}

	h.replyWithTokenPair(c, tokenPair, admin, "")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,min=8,max=72"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required,min=8,max=72"`
}

// ChangePassword 校验当前密码并更新为新密码。CLI 创建的管理员首次登录后必须调用。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "current_password, new_password and confirm_password must be 8-72 characters")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		BadRequest(c, "password confirmation does not match")
		return
	}

	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.Uint64("admin_id", uint64(session.AdminID)))

	var admin database.Admin
	if err := h.db.WithContext(ctx).First(&admin, session.AdminID).Error; err != nil {
		logger.Info("change password: admin not found", slog.Any("error", err))
		Unauthorized(c, "unauthorized")
		return
	}

	if !h.authService.CheckPasswordHash(req.CurrentPassword, admin.PasswordHash) {
		logger.Info("change password: current password mismatch")
		Unauthorized(c, "Invalid credentials")
		return
	}

	if strings.TrimSpace(req.NewPassword) == strings.TrimSpace(req.CurrentPassword) {
		BadRequest(c, "new password must be different from current password")
		return
	}

	hashed, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("change password: hash failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}

	if err := h.db.WithContext(ctx).Model(&admin).Updates(map[string]any{
		"password_hash":        hashed,
		"must_change_password": false,
	}).Error; err != nil {
		logger.Error("change password: update failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}
	admin.MustChangePassword = false

	if refreshToken, err := c.Cookie(refreshTokenCookieName); err == nil && refreshToken != "" {
		if claims, err := h.authService.ValidateToken(refreshToken); err == nil && claims.TokenType == auth.TokenTypeRefresh && claims.ID != "" {
			key := refreshTokenBlacklistKeyPrefix + claims.ID
			if err := h.revokeRefreshToken(ctx, key, claims.ExpiresAt); err != nil {
				logger.Error("change password: revoke refresh failed", slog.Any("error", err))
				Internal(c, "Internal server error")
				return
			}
		}
	}

	tokenPair, err := h.authService.GenerateTokenPair(sessionOf(admin), false)
	if err != nil {
		logger.Error("change password: generate token pair failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}

	logger.Info("admin password changed")
	h.replyWithTokenPair(c, tokenPair, admin, "Password changed")
}

// Logout 将刷新令牌加入黑名单，防止继续使用。
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken := h.extractRefreshToken(c)
	if refreshToken == "" {
		BadRequest(c, "refresh token missing")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c)

	claims, ok := h.validRefreshClaims(c, refreshToken, logger)
	if !ok {
		return
	}

	key := refreshTokenBlacklistKeyPrefix + claims.ID
	if err := h.revokeRefreshToken(ctx, key, claims.ExpiresAt); err != nil {
		logger.Error("logout revoke token failed", slog.Any("error", err))
		Internal(c, "Internal server error")
		return
	}

	// 清除 Cookie。
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   strings.TrimSpace(h.cfg.CookieDomain),
	})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) validRefreshClaims(c *gin.Context, token string, logger *slog.Logger) (*auth.TokenClaims, bool) {
	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		logger.Info("refresh token invalid", slog.Any("error", err))
		Unauthorized(c, "unauthorized")
		return nil, false
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		logger.Info("refresh token wrong type", slog.String("token_type", claims.TokenType))
		Unauthorized(c, "unauthorized")
		return nil, false
	}
	if claims.ID == "" {
		logger.Info("refresh token missing jti")
		Unauthorized(c, "unauthorized")
		return nil, false
	}
	return claims, true
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) replyWithTokenPair(c *gin.Context, tokenPair auth.TokenPair, admin database.Admin, message string) {
	h.setRefreshCookie(c, tokenPair.RefreshToken)
	c.JSON(http.StatusOK, tokenResponse{
		Message:            message,
		Admin:              &adminSummary{ID: admin.ID, Username: admin.Username, Email: admin.Email},
		AccessToken:        tokenPair.AccessToken,
		TokenType:          "Bearer",
		ExpiresIn:          int(h.authService.AccessTokenTTL().Seconds()),
		MustChangePassword: admin.MustChangePassword,
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	maxAge := int(h.authService.RefreshTokenTTL().Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Hour.Seconds())
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    refreshToken,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   strings.TrimSpace(h.cfg.CookieDomain),
		Expires:  time.Now().Add(h.authService.RefreshTokenTTL()),
	})
}

func (h *AuthHandler) revokeRefreshToken(ctx context.Context, key string, expiresAt *jwt.NumericDate) error {
	var ttl time.Duration
	if expiresAt == nil {
		ttl = h.authService.RefreshTokenTTL()
	} else {
		ttl = time.Until(expiresAt.Time)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return h.redis.Set(ctx, key, "revoked", ttl).Err()
}

func (h *AuthHandler) incrementLoginFail(ctx context.Context, username string) error {
	failKey := "lock:login:fail:" + username
	count, err := middleware.IncrWithTTL(ctx, h.redis, failKey, h.cfg.LoginLockTTL)
	if err != nil {
		return err
	}
	if h.cfg.LoginLockThreshold > 0 && count >= int64(h.cfg.LoginLockThreshold) {
		_ = h.redis.Set(ctx, "lock:login:"+username, "1", h.cfg.LoginLockTTL).Err()
	}
	return nil
}

func (h *AuthHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if _, ok := c.Get("slogLogger"); ok || h.logger == nil {
		return middleware.LoggerFromContext(c)
	}
	return h.logger
}

func sessionOf(admin database.Admin) auth.Session {
	return auth.Session{AdminID: admin.ID, Username: admin.Username}
}

func isHTTPSRequest(c *gin.Context) bool {
	if c.Request == nil {
		return false
	}
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
