package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/errcode"
)

// RateCounter 是 Redis 客户端中计数所需的部分。
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// IncrWithTTL 自增计数，首次写入时设置过期时间。
func IncrWithTTL(ctx context.Context, client RateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// SubmitRateLimitMiddleware 按 IP 限制公开提交接口的频率，窗口为一分钟。
// Redis 不可用时放行，避免限流故障阻断提交。
func SubmitRateLimitMiddleware(client RateCounter, scope string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || perMinute <= 0 {
			c.Next()
			return
		}

		window := time.Now().UTC().Format("200601021504")
		key := "rate:" + scope + ":" + c.ClientIP() + ":" + window
		count, err := IncrWithTTL(c.Request.Context(), client, key, time.Minute)
		if err != nil {
			LoggerFromContext(c).Warn("rate limit counter unavailable", slog.Any("error", err))
			c.Next()
			return
		}
		if count > int64(perMinute) {
			c.Header("Retry-After", strconv.Itoa(60-time.Now().UTC().Second()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": errcode.CodeRateLimited})
			return
		}
		c.Next()
	}
}
