package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGinMiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/jobs/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/jobs/:id", "204"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/8", nil))

	if got := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/jobs/:id", "204")) - before; got != 2 {
		t.Fatalf("expected 2 requests on route template, got %v", got)
	}

	unmatched := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	if got := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")) - unmatched; got != 1 {
		t.Fatalf("expected unmatched request to be grouped, got %v", got)
	}
}

func TestAsynqMiddlewareCountsFailures(t *testing.T) {
	handler := AsynqMetricsMiddleware()(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return errors.New("boom")
	}))

	before := testutil.ToFloat64(taskFailedTotal.WithLabelValues("", "test:fail"))
	if err := handler.ProcessTask(context.Background(), asynq.NewTask("test:fail", nil)); err == nil {
		t.Fatal("expected handler error to propagate")
	}
	if got := testutil.ToFloat64(taskFailedTotal.WithLabelValues("", "test:fail")) - before; got != 1 {
		t.Fatalf("expected one failure, got %v", got)
	}
}

func TestObserveExpiredIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(listingsExpiredTotal)
	ObserveExpired(0)
	ObserveExpired(3)
	if got := testutil.ToFloat64(listingsExpiredTotal) - before; got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}
