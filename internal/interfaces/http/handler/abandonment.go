package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/application/abandonment"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AbandonmentHandler triggers abandonment detection sweeps
type AbandonmentHandler struct {
	BaseHandler
	sweeper *abandonment.SweepService
}

// NewAbandonmentHandler creates a new AbandonmentHandler
func NewAbandonmentHandler(sweeper *abandonment.SweepService, retryAfterSeconds int) *AbandonmentHandler {
	return &AbandonmentHandler{
		BaseHandler: BaseHandler{RetryAfterSeconds: retryAfterSeconds},
		sweeper:     sweeper,
	}
}

// RegisterRoutes registers abandonment sweep routes
func (h *AbandonmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tenants/:id/abandonment/sweep", h.Sweep)
}

// RegisterCronRoutes registers the scheduler-facing sweep trigger
func (h *AbandonmentHandler) RegisterCronRoutes(rg *gin.RouterGroup) {
	rg.POST("/abandonment/sweep", h.SweepAll)
}

// Sweep runs abandonment detection over a tenant's recent checkout activity
func (h *AbandonmentHandler) Sweep(c *gin.Context) {
	id, ok := parseTenantID(c)
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.sweeper.Sweep(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.FromGin(c).Info("abandonment sweep finished",
		zap.String("tenant_id", id.String()),
		zap.Int("examined", result.SessionsExamined),
		zap.Int("marked", result.Marked),
	)
	h.Success(c, result)
}

// SweepAll runs abandonment detection across every active tenant. The
// response carries a per-tenant breakdown with the abandoned count each.
func (h *AbandonmentHandler) SweepAll(c *gin.Context) {
	pass, err := h.sweeper.SweepAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	marked := 0
	for i := range pass.Results {
		marked += pass.Results[i].Marked
	}
	logger.FromGin(c).Info("abandonment sweep pass finished",
		zap.Int("tenants", len(pass.Results)),
		zap.Int("marked", marked),
	)
	h.Success(c, pass)
}
