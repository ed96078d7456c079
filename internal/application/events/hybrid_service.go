package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/shopify"
	"go.uber.org/zap"
)

// Source selects where an event listing is assembled from
type Source string

const (
	SourceDB       Source = "db"
	SourceUpstream Source = "shopify"
	SourceHybrid   Source = "hybrid"
)

const (
	defaultLimit  = 50
	maxLimit      = 250
	projectionTTL = 30 * time.Second
)

// Query asks for a tenant's recent events
type Query struct {
	TenantID uuid.UUID
	Source   Source
	Topic    string // optional topic filter
	Limit    int
}

// EventView is one event in a listing, regardless of where it came from
type EventView struct {
	Source    Source          `json:"source"`
	Topic     string          `json:"topic"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Page is an assembled event listing
type Page struct {
	Source        Source         `json:"source"`
	Events        []EventView    `json:"events"`
	FromDB        int            `json:"from_db"`
	FromUpstream  int            `json:"from_upstream"`
	TopicCounts   map[string]int `json:"topic_counts"`
	UpstreamError string         `json:"upstream_error,omitempty"`
}

// UpstreamEvents is the slice of the storefront API this service needs
type UpstreamEvents interface {
	FetchEvents(ctx context.Context, creds shopify.Credentials) ([]shopify.UpstreamEvent, error)
}

// HybridService assembles event listings from the local raw event log, the
// upstream activity feed, or both merged.
//
// In hybrid mode each source contributes at most half the requested limit;
// the merge is sorted by creation time descending and truncated. An upstream
// failure degrades hybrid listings to local-only rather than failing them.
type HybridService struct {
	tenants     identity.TenantRepository
	events      eventlog.RawEventRepository
	upstream    UpstreamEvents
	projections cache.Store // nil disables caching
	logger      *zap.Logger
}

// NewHybridService creates a hybrid event listing service
func NewHybridService(
	tenants identity.TenantRepository,
	events eventlog.RawEventRepository,
	upstream UpstreamEvents,
	projections cache.Store,
	logger *zap.Logger,
) *HybridService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridService{
		tenants:     tenants,
		events:      events,
		upstream:    upstream,
		projections: projections,
		logger:      logger,
	}
}

// List assembles an event listing for a tenant
func (s *HybridService) List(ctx context.Context, query Query) (*Page, error) {
	source, err := normalizeSource(query.Source)
	if err != nil {
		return nil, err
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if page, ok := s.cachedPage(ctx, query.TenantID, source, query.Topic, limit); ok {
		return page, nil
	}

	tenant, err := s.tenants.FindByID(ctx, query.TenantID)
	if err != nil {
		return nil, err
	}

	page := &Page{Source: source}
	perSource := limit
	if source == SourceHybrid {
		perSource = (limit + 1) / 2
	}

	var views []EventView
	if source == SourceDB || source == SourceHybrid {
		local, err := s.localEvents(ctx, tenant.ID, query.Topic, perSource)
		if err != nil {
			return nil, err
		}
		page.FromDB = len(local)
		views = append(views, local...)
	}

	if source == SourceUpstream || source == SourceHybrid {
		live, err := s.upstreamEvents(ctx, tenant, query.Topic, perSource)
		if err != nil {
			if source == SourceUpstream {
				return nil, err
			}
			// Hybrid tolerates a dead upstream; serve what the log has
			s.logger.Warn("upstream events unavailable, serving local only",
				zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
			page.UpstreamError = err.Error()
		}
		page.FromUpstream = len(live)
		views = append(views, live...)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	if len(views) > limit {
		views = views[:limit]
	}
	page.Events = views

	page.TopicCounts = make(map[string]int, len(views))
	for i := range views {
		page.TopicCounts[views[i].Topic]++
	}

	s.storePage(ctx, query.TenantID, source, query.Topic, limit, page)
	return page, nil
}

func (s *HybridService) localEvents(ctx context.Context, tenantID uuid.UUID, topic string, limit int) ([]EventView, error) {
	rows, err := s.events.FindRecent(ctx, tenantID, topic, limit)
	if err != nil {
		return nil, err
	}
	views := make([]EventView, len(rows))
	for i := range rows {
		views[i] = EventView{
			Source:    SourceDB,
			Topic:     rows[i].Topic,
			CreatedAt: rows[i].CreatedAt,
			Payload:   rows[i].Payload,
		}
	}
	return views, nil
}

func (s *HybridService) upstreamEvents(ctx context.Context, tenant *identity.Tenant, topic string, limit int) ([]EventView, error) {
	if !tenant.HasUsableCredentials() {
		return nil, shared.ErrMissingCredentials
	}
	creds := shopify.Credentials{ShopDomain: tenant.ShopDomain, AccessToken: tenant.AccessToken}
	raw, err := s.upstream.FetchEvents(ctx, creds)
	if err != nil && len(raw) == 0 {
		return nil, err
	}

	views := make([]EventView, 0, len(raw))
	for i := range raw {
		inferred := InferTopic(raw[i].SubjectType, raw[i].Verb)
		if topic != "" && inferred != topic {
			continue
		}
		views = append(views, EventView{
			Source:    SourceUpstream,
			Topic:     inferred,
			CreatedAt: raw[i].CreatedAt,
			Message:   raw[i].Message,
		})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	if len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

// InferTopic maps an upstream activity event's subject type and verb onto
// the webhook topic taxonomy. Unknown subjects fall back to a literal
// lowercase rendering so nothing is dropped.
func InferTopic(subjectType, verb string) string {
	verb = strings.ToLower(verb)
	switch strings.ToLower(subjectType) {
	case "order":
		if verb == "update" {
			return eventlog.TopicOrdersUpdated
		}
		return "orders/" + verb
	case "product":
		return "products/" + verb
	case "customer":
		return "customers/" + verb
	case "checkout":
		return "checkouts/" + verb
	case "cart":
		return "carts/" + verb
	default:
		if subjectType == "" {
			return verb
		}
		return strings.ToLower(subjectType) + "/" + verb
	}
}

func (s *HybridService) projectionKey(tenantID uuid.UUID, source Source, topic string, limit int) string {
	return fmt.Sprintf("events:%s:%s:%s:%d", tenantID, source, topic, limit)
}

func (s *HybridService) cachedPage(ctx context.Context, tenantID uuid.UUID, source Source, topic string, limit int) (*Page, bool) {
	if s.projections == nil {
		return nil, false
	}
	raw, ok, err := s.projections.Get(ctx, s.projectionKey(tenantID, source, topic, limit))
	if err != nil || !ok {
		return nil, false
	}
	var page Page
	if json.Unmarshal([]byte(raw), &page) != nil {
		return nil, false
	}
	return &page, true
}

func (s *HybridService) storePage(ctx context.Context, tenantID uuid.UUID, source Source, topic string, limit int, page *Page) {
	if s.projections == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.projections.Set(ctx, s.projectionKey(tenantID, source, topic, limit), string(raw), projectionTTL); err != nil {
		s.logger.Warn("failed to cache event projection", zap.Error(err))
	}
}

func normalizeSource(source Source) (Source, error) {
	switch source {
	case "", SourceHybrid:
		return SourceHybrid, nil
	case SourceDB, SourceUpstream:
		return source, nil
	default:
		return "", shared.NewDomainError("INVALID_SOURCE", "Source must be one of db, shopify, hybrid")
	}
}
