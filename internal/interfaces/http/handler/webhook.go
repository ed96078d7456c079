package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/application/webhook"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/shopify"
	"go.uber.org/zap"
)

// Webhook intake headers, matching what the storefront platform sends
const (
	TopicHeader      = "X-Shopify-Topic"
	ShopDomainHeader = "X-Shopify-Shop-Domain"
)

// Raw payloads larger than this are rejected before verification
const maxWebhookBody = 1 << 20 // 1MB

// WebhookHandler receives storefront webhook deliveries
type WebhookHandler struct {
	BaseHandler
	intake *webhook.IntakeService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(intake *webhook.IntakeService) *WebhookHandler {
	return &WebhookHandler{intake: intake}
}

// RegisterRoutes registers the webhook intake route
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks", h.Receive)
}

// Receive verifies and records one webhook delivery. A delivery missing any
// of its identifying headers is malformed and rejected before verification;
// the signature is then checked over the raw body exactly as received,
// before any parsing.
func (h *WebhookHandler) Receive(c *gin.Context) {
	shopDomain := c.GetHeader(ShopDomainHeader)
	topic := c.GetHeader(TopicHeader)
	signature := c.GetHeader(shopify.SignatureHeader)
	if shopDomain == "" || topic == "" || signature == "" {
		h.BadRequest(c, "Webhook headers "+ShopDomainHeader+", "+TopicHeader+" and "+shopify.SignatureHeader+" are required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return
	}
	if len(body) > maxWebhookBody {
		h.Error(c, http.StatusRequestEntityTooLarge, "ERR_PAYLOAD_TOO_LARGE", "Webhook payload exceeds size limit")
		return
	}

	event, err := h.intake.Process(c.Request.Context(), shopDomain, topic, signature, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.FromGin(c).Info("webhook recorded",
		zap.String("tenant_id", event.TenantID.String()),
		zap.String("topic", event.Topic),
	)
	h.Success(c, gin.H{"event_id": event.ID.String()})
}
