package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGinMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newHTTPMetrics(prometheus.NewRegistry(), "oilfield", "test")

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/tanks/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tanks/1", nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/tanks/:id", "204")); got != 2 {
		t.Fatalf("expected 2 requests for route, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "unknown", "404")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
}

func TestGinMiddlewareNilMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(nil))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
}
