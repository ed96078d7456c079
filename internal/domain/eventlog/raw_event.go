package eventlog

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/shared"
)

// Well-known topics in the `resource/action` taxonomy. Webhook deliveries may
// carry topics outside this list; the log stores them verbatim.
const (
	TopicOrdersCreate       = "orders/create"
	TopicOrdersUpdated      = "orders/updated"
	TopicCustomersCreate    = "customers/create"
	TopicCustomersUpdate    = "customers/update"
	TopicProductsCreate     = "products/create"
	TopicProductsUpdate     = "products/update"
	TopicCheckoutsCreate    = "checkouts/create"
	TopicCheckoutsUpdate    = "checkouts/update"
	TopicCartsCreate        = "carts/create"
	TopicCartsUpdate        = "carts/update"
	TopicCheckoutsAbandoned = "checkouts/abandoned"
)

// CheckoutActivityTopics are the topics the abandonment sweep correlates
// into sessions.
var CheckoutActivityTopics = []string{
	TopicCheckoutsCreate,
	TopicCheckoutsUpdate,
	TopicCartsCreate,
	TopicCartsUpdate,
}

// RawEvent is one append-only log row capturing a webhook delivery or a
// synthetic detection, tagged with a topic.
//
// Rows are immutable once written; corrections are new rows, not updates.
// The log may contain duplicates under webhook re-delivery - consumers must
// tolerate that.
type RawEvent struct {
	shared.BaseEntity
	TenantID uuid.UUID
	Topic    string
	Payload  json.RawMessage
}

// NewRawEvent creates a raw event row
func NewRawEvent(tenantID uuid.UUID, topic string, payload json.RawMessage) (*RawEvent, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	if topic == "" {
		return nil, shared.NewDomainError("INVALID_TOPIC", "Topic cannot be empty")
	}
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return &RawEvent{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Topic:      topic,
		Payload:    payload,
	}, nil
}

// TopicFamily returns the resource family of a topic, e.g. "orders" for
// "orders/create". Topics without a slash are their own family.
func TopicFamily(topic string) string {
	if idx := strings.IndexByte(topic, '/'); idx > 0 {
		return topic[:idx]
	}
	return topic
}
