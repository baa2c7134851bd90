package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"jobboard/internal/auth"
)

type memoryCounter struct {
	counts map[string]int64
	err    error
}

func (m *memoryCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	m.counts[key]++
	cmd.SetVal(m.counts[key])
	return cmd
}

func (m *memoryCounter) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitRateLimit(t *testing.T) {
	counter := &memoryCounter{counts: map[string]int64{}}
	r := newEngine(SubmitRateLimitMiddleware(counter, "jobs", 2))

	for i := 0; i < 2; i++ {
		if w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, w.Code)
		}
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestSubmitRateLimitFailsOpen(t *testing.T) {
	counter := &memoryCounter{err: errors.New("redis down")}
	r := newEngine(SubmitRateLimitMiddleware(counter, "jobs", 1))

	for i := 0; i < 3; i++ {
		if w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)); w.Code != http.StatusOK {
			t.Fatalf("expected fail-open 200 got %d", w.Code)
		}
	}
}

func TestCorrelationID(t *testing.T) {
	r := newEngine(CorrelationIDMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(correlationIDHeader, "upstream-123")
	if got := serve(r, req).Header().Get(correlationIDHeader); got != "upstream-123" {
		t.Fatalf("expected upstream id to be kept, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(correlationIDHeader, "bad id\twith spaces")
	got := serve(r, req).Header().Get(correlationIDHeader)
	if got == "" || strings.Contains(got, " ") {
		t.Fatalf("expected regenerated id, got %q", got)
	}
}

func TestInternalSecret(t *testing.T) {
	r := newEngine(InternalSecretMiddleware("s3cret"))

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Internal-Secret", "s3cret")
	if w := serve(r, req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	open := newEngine(InternalSecretMiddleware(""))
	if w := serve(open, httptest.NewRequest(http.MethodGet, "/ping", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected open endpoint, got %d", w.Code)
	}
}

func TestAuthMiddlewareInjectsSession(t *testing.T) {
	svc := auth.NewTestService(t)
	pair, err := svc.GenerateTokenPair(auth.Session{AdminID: 9, Username: "mod"}, false)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(svc), RequirePasswordChangeCompletedMiddleware(), func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, session.Username)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := serve(r, req)
	if w.Code != http.StatusOK || w.Body.String() != "mod" {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token "+pair.AccessToken)
	if w := serve(r, req); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong scheme, got %d", w.Code)
	}
}
