package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/application/sync"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SyncHandler handles sync trigger and audit endpoints
type SyncHandler struct {
	BaseHandler
	orchestrator *sync.Orchestrator
	syncLogs     eventlog.SyncLogRepository
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *sync.Orchestrator, syncLogs eventlog.SyncLogRepository, retryAfterSeconds int) *SyncHandler {
	return &SyncHandler{
		BaseHandler:  BaseHandler{RetryAfterSeconds: retryAfterSeconds},
		orchestrator: orchestrator,
		syncLogs:     syncLogs,
	}
}

// RegisterRoutes registers per-tenant sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tenants/:id/sync", h.TriggerTenant)
	rg.GET("/tenants/:id/sync-logs", h.ListLogs)
}

// RegisterCronRoutes registers the scheduler-facing trigger
func (h *SyncHandler) RegisterCronRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync/run", h.TriggerAll)
}

// TriggerTenant runs a full sync for one tenant and reports the outcome
func (h *SyncHandler) TriggerTenant(c *gin.Context) {
	id, ok := parseTenantID(c)
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.orchestrator.SyncTenant(c.Request.Context(), id, eventlog.SyncJobManual)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// TriggerAll runs a sync pass over every active tenant. Individual tenant
// failures are reported inside the result, never as a failed pass.
func (h *SyncHandler) TriggerAll(c *gin.Context) {
	result, err := h.orchestrator.SyncAllTenants(c.Request.Context(), eventlog.SyncJobCron)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.FromGin(c).Info("scheduled sync pass finished",
		zap.Int("tenants", len(result.Results)),
		zap.Duration("took", result.FinishedAt.Sub(result.StartedAt)),
	)
	h.Success(c, result)
}

// SyncLogResponse is the API representation of one sync audit row
type SyncLogResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	JobType   string    `json:"job_type"`
	Outcome   string    `json:"outcome"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

const defaultSyncLogLimit = 50

// ListLogs returns recent sync audit rows for a tenant, newest first
func (h *SyncHandler) ListLogs(c *gin.Context) {
	id, ok := parseTenantID(c)
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	limit := defaultSyncLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	rows, err := h.syncLogs.FindRecentForTenant(c.Request.Context(), id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]SyncLogResponse, len(rows))
	for i := range rows {
		out[i] = SyncLogResponse{
			ID:        rows[i].ID.String(),
			TenantID:  rows[i].TenantID.String(),
			JobType:   string(rows[i].JobType),
			Outcome:   string(rows[i].Outcome),
			Message:   rows[i].Message,
			CreatedAt: rows[i].CreatedAt,
		}
	}
	h.Success(c, out)
}
