package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/application/events"
)

// EventsHandler serves the hybrid event view
type EventsHandler struct {
	BaseHandler
	hybrid *events.HybridService
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(hybrid *events.HybridService) *EventsHandler {
	return &EventsHandler{hybrid: hybrid}
}

// RegisterRoutes registers event listing routes
func (h *EventsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tenants/:id/events", h.List)
}

// List assembles a tenant's recent events from the local log, the upstream
// activity feed, or both merged, selected by ?source=db|shopify|hybrid.
func (h *EventsHandler) List(c *gin.Context) {
	id, ok := parseTenantID(c)
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	page, err := h.hybrid.List(c.Request.Context(), events.Query{
		TenantID: id,
		Source:   events.Source(c.Query("source")),
		Topic:    c.Query("topic"),
		Limit:    limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}
