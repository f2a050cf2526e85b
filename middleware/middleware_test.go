package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func get(r http.Handler, path, remote string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := get(r, "/ping", "", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	w = get(r, "/ping", "", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestRateLimitByIP(t *testing.T) {
	r := newEngine(RateLimitByIP(0.001, 2))

	assert.Equal(t, http.StatusOK, get(r, "/ping", "10.0.0.1:1000", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/ping", "10.0.0.1:1000", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/ping", "10.0.0.1:1000", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/ping", "10.0.0.2:1000", nil).Code, "other clients keep their own bucket")
}

func TestAllowIPs(t *testing.T) {
	r := newEngine(AllowIPs([]string{"172.19.0.0/16", "10.0.0.5"}))

	assert.Equal(t, http.StatusOK, get(r, "/ping", "172.19.0.18:5000", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/ping", "10.0.0.5:5000", nil).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/ping", "10.0.0.6:5000", nil).Code)

	open := newEngine(AllowIPs(nil))
	assert.Equal(t, http.StatusOK, get(open, "/ping", "8.8.8.8:5000", nil).Code)
}

func TestRecovery(t *testing.T) {
	r := newEngine(RequestID(), AccessLog(), Recovery())

	w := get(r, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestPrometheusMiddleware_Labels(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusOK))
	assert.Equal(t, "4xx", statusClass(http.StatusTooManyRequests))

	var route string
	r := newEngine(PrometheusMiddleware())
	r.NoRoute(func(c *gin.Context) { route = routePath(c); c.Status(http.StatusNotFound) })
	r.GET("/api/sales/:id", func(c *gin.Context) { route = routePath(c) })

	get(r, "/api/sales/65f000000000000000000001", "", nil)
	assert.Equal(t, "/api/sales/:id", route)

	w := get(r, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unmatched", route)
}
