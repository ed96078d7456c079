package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

func serveHealth(db, cache Pinger) *httptest.ResponseRecorder {
	router := gin.New()
	NewSystemHandler(db, cache).RegisterRoutes(router.Group("/api/v1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	return w
}

func TestHealth_AllReachable(t *testing.T) {
	w := serveHealth(&stubPinger{}, &stubPinger{})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealth_DatabaseDownIsUnhealthy(t *testing.T) {
	w := serveHealth(&stubPinger{err: errors.New("refused")}, &stubPinger{})

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"unreachable"`)
}

func TestHealth_CacheDownIsDegradedButHealthy(t *testing.T) {
	w := serveHealth(&stubPinger{}, &stubPinger{err: errors.New("refused")})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), `"cache":"unreachable"`)
}

func TestHealth_NoCacheConfigured(t *testing.T) {
	w := serveHealth(&stubPinger{}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"cache"`)
}
