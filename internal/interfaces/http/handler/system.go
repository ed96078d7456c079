package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/interfaces/http/dto"
)

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler handles health and system info endpoints
type SystemHandler struct {
	BaseHandler
	db        Pinger
	cache     Pinger // nil when Redis is disabled
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db, cache Pinger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		cache:     cache,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/system/info", h.Info)
}

// HealthResponse reports the reachability of backing dependencies
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
}

// Health checks backing dependencies. A dead database makes the service
// unhealthy; a dead cache does not, since locking degrades gracefully.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok"}
	healthy := true

	if h.db == nil || h.db.Ping(ctx) != nil {
		resp.Database = "unreachable"
		resp.Status = "degraded"
		healthy = false
	}
	if h.cache != nil {
		resp.Cache = "ok"
		if h.cache.Ping(ctx) != nil {
			resp.Cache = "unreachable"
			resp.Status = "degraded"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

// InfoResponse carries basic build and uptime information
type InfoResponse struct {
	Name      string `json:"name"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Info returns basic system information
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, InfoResponse{
		Name:      "StoreSync Backend API",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
