package webhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/storesync/backend/internal/application/sync"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/shopify"
	"go.uber.org/zap"
)

// IntakeService accepts webhook deliveries from the upstream platform.
//
// A delivery is accepted once its signature verifies and it lands in the raw
// event log. The opportunistic replica refresh that follows is best-effort:
// its failure never turns a logged delivery into a rejected one, since the
// next full sync converges the replica anyway.
type IntakeService struct {
	tenants    identity.TenantRepository
	events     eventlog.RawEventRepository
	reconciler *sync.Reconciler
	secret     string
	logger     *zap.Logger
}

// NewIntakeService creates a webhook intake service. The secret is the
// deployment-wide HMAC key deliveries are signed with.
func NewIntakeService(
	tenants identity.TenantRepository,
	events eventlog.RawEventRepository,
	reconciler *sync.Reconciler,
	secret string,
	logger *zap.Logger,
) *IntakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		tenants:    tenants,
		events:     events,
		reconciler: reconciler,
		secret:     secret,
		logger:     logger,
	}
}

// Process verifies and records one webhook delivery. The signature is
// checked against the raw body before any parsing. Duplicate deliveries are
// logged again without complaint; the log tolerates them.
func (s *IntakeService) Process(ctx context.Context, shopDomain, topic, signature string, body []byte) (*eventlog.RawEvent, error) {
	if !shopify.VerifySignature(s.secret, body, signature) {
		return nil, shared.ErrSignatureMismatch
	}
	if topic == "" {
		return nil, shared.NewDomainError("INVALID_TOPIC", "Webhook topic header is required")
	}

	tenant, err := s.tenants.FindByShopDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnknownSourceDomain
		}
		return nil, err
	}

	event, err := eventlog.NewRawEvent(tenant.ID, topic, json.RawMessage(body))
	if err != nil {
		return nil, err
	}
	if err := s.events.Append(ctx, event); err != nil {
		return nil, err
	}

	s.refreshReplica(ctx, tenant, topic, body)

	s.logger.Info("webhook recorded",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("shop_domain", shopDomain),
		zap.String("topic", topic),
	)
	return event, nil
}

// refreshReplica applies the delivery's payload to the matching replica
// table. Unknown families and malformed payloads are skipped silently; the
// event row is already durable.
func (s *IntakeService) refreshReplica(ctx context.Context, tenant *identity.Tenant, topic string, body []byte) {
	var err error
	switch eventlog.TopicFamily(topic) {
	case "products":
		var payload shopify.UpstreamProduct
		if json.Unmarshal(body, &payload) != nil || payload.ID == 0 {
			return
		}
		_, err = s.reconciler.ReconcileProducts(ctx, tenant.ID, []shopify.UpstreamProduct{payload}, false)

	case "customers":
		var payload shopify.UpstreamCustomer
		if json.Unmarshal(body, &payload) != nil || payload.ID == 0 {
			return
		}
		_, err = s.reconciler.ReconcileCustomers(ctx, tenant.ID, []shopify.UpstreamCustomer{payload}, false)

	case "orders":
		var payload shopify.UpstreamOrder
		if json.Unmarshal(body, &payload) != nil || payload.ID == 0 {
			return
		}
		_, err = s.reconciler.ReconcileOrders(ctx, tenant.ID, []shopify.UpstreamOrder{payload}, false)

	default:
		return
	}

	if err != nil {
		s.logger.Warn("replica refresh from webhook failed",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
}
