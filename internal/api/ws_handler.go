package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/auth"
	"jobboard/internal/events"
)

const wsPingInterval = 30 * time.Second

// WsHandler 将审核事件推送给已登录的管理员。
// 浏览器无法为 WebSocket 设置 Authorization 头，因此首条消息携带 access token。
type WsHandler struct {
	redisClient    redis.UniversalClient
	authService    *auth.AuthService
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。
func NewWsHandler(redisClient redis.UniversalClient, authService *auth.AuthService, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		redisClient:    redisClient,
		authService:    authService,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 升级连接，完成鉴权后订阅事件频道。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	baseLog := h.logger.With(slog.String("client_ip", c.ClientIP()))

	sessionCh := make(chan auth.Session, 1)
	errCh := make(chan error, 2)

	go h.readLoop(ctx, conn, sessionCh, errCh, cancel, baseLog)

	var session auth.Session
	select {
	case <-ctx.Done():
		return
	case err := <-errCh:
		if err != nil {
			baseLog.Warn("websocket authentication failed", slog.Any("error", err))
		}
		return
	case session = <-sessionCh:
	}

	adminLog := baseLog.With(slog.Uint64("admin_id", uint64(session.AdminID)))
	go h.subscribeLoop(ctx, conn, errCh, cancel, adminLog)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			adminLog.Info("websocket connection closed", slog.Any("error", err))
		} else {
			adminLog.Info("websocket connection closed")
		}
	}
}

// authenticate 校验首条消息，仅接受已完成改密的 access token。
func (h *WsHandler) authenticate(message []byte) (auth.Session, int, error) {
	var authMsg wsAuthMessage
	if err := json.Unmarshal(message, &authMsg); err != nil {
		return auth.Session{}, websocket.ClosePolicyViolation, fmt.Errorf("decode auth payload: %w", err)
	}
	if authMsg.Type != "auth" || authMsg.Token == "" {
		return auth.Session{}, websocket.ClosePolicyViolation, errors.New("auth required")
	}
	claims, err := h.authService.ValidateToken(authMsg.Token)
	if err != nil {
		return auth.Session{}, websocket.ClosePolicyViolation, fmt.Errorf("validate token: %w", err)
	}
	if claims.TokenType != auth.TokenTypeAccess {
		return auth.Session{}, websocket.ClosePolicyViolation, fmt.Errorf("invalid token type: %s", claims.TokenType)
	}
	if claims.MustChangePassword {
		return auth.Session{}, websocket.ClosePolicyViolation, errors.New("password change required")
	}
	return claims.Session(), 0, nil
}

func (h *WsHandler) readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	sessionCh chan<- auth.Session,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	authenticated := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			writeClose(conn, websocket.CloseAbnormalClosure, "read error")
			errCh <- fmt.Errorf("read message: %w", err)
			cancel()
			return
		}

		if !authenticated {
			session, closeCode, err := h.authenticate(message)
			if err != nil {
				writeClose(conn, closeCode, "unauthorized")
				errCh <- err
				cancel()
				return
			}
			authenticated = true
			sessionCh <- session
			log.Info("websocket authenticated", slog.Uint64("admin_id", uint64(session.AdminID)))
			continue
		}

		// 客户端后续消息无需处理，继续读取以感知断开。
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (h *WsHandler) subscribeLoop(
	ctx context.Context,
	conn *websocket.Conn,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	pubsub := h.redisClient.Subscribe(ctx, events.Channel)
	defer pubsub.Close()

	log.Info("subscribed to redis channel", slog.String("channel", events.Channel))

	ch := pubsub.Channel()
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				errCh <- errors.New("pubsub channel closed")
				cancel()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				errCh <- fmt.Errorf("write message: %w", err)
				cancel()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				errCh <- fmt.Errorf("write ping: %w", err)
				cancel()
				return
			}
		}
	}
}
