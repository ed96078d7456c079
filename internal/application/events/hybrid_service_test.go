package events

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTenantRepo struct {
	tenant *identity.Tenant
}

func (r *memTenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	if r.tenant != nil && r.tenant.ID == id {
		return r.tenant, nil
	}
	return nil, shared.ErrNotFound
}
func (r *memTenantRepo) FindByShopDomain(ctx context.Context, d string) (*identity.Tenant, error) {
	return nil, shared.ErrNotFound
}
func (r *memTenantRepo) FindAll(ctx context.Context) ([]identity.Tenant, error)       { return nil, nil }
func (r *memTenantRepo) FindAllActive(ctx context.Context) ([]identity.Tenant, error) { return nil, nil }
func (r *memTenantRepo) Save(ctx context.Context, tenant *identity.Tenant) error      { return nil }
func (r *memTenantRepo) ExistsByShopDomain(ctx context.Context, d string) (bool, error) {
	return false, nil
}

type memEventRepo struct {
	events []eventlog.RawEvent
}

func (r *memEventRepo) Append(ctx context.Context, event *eventlog.RawEvent) error {
	r.events = append(r.events, *event)
	return nil
}

func (r *memEventRepo) FindRecent(ctx context.Context, tenantID uuid.UUID, topic string, limit int) ([]eventlog.RawEvent, error) {
	var out []eventlog.RawEvent
	for _, event := range r.events {
		if event.TenantID != tenantID {
			continue
		}
		if topic != "" && event.Topic != topic {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memEventRepo) FindByTopicsSince(ctx context.Context, tenantID uuid.UUID, topics []string, since time.Time) ([]eventlog.RawEvent, error) {
	return nil, nil
}

func (r *memEventRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return int64(len(r.events)), nil
}

type stubUpstream struct {
	events []shopify.UpstreamEvent
	err    error
	calls  int
}

func (s *stubUpstream) FetchEvents(ctx context.Context, creds shopify.Credentials) ([]shopify.UpstreamEvent, error) {
	s.calls++
	return s.events, s.err
}

type hybridHarness struct {
	tenant   *identity.Tenant
	base     time.Time
	events   *memEventRepo
	upstream *stubUpstream
	service  *HybridService
}

func newHybridHarness(t *testing.T, store cache.Store) *hybridHarness {
	t.Helper()
	tenant, err := identity.NewTenant("Acme", "acme.myshopify.com")
	require.NoError(t, err)
	tenant.SetCredentials("shpat_test", "key", "secret")

	h := &hybridHarness{
		tenant:   tenant,
		base:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		events:   &memEventRepo{},
		upstream: &stubUpstream{},
	}
	h.service = NewHybridService(&memTenantRepo{tenant: tenant}, h.events, h.upstream, store, nil)
	return h
}

func (h *hybridHarness) addLocal(t *testing.T, topic string, createdAt time.Time) {
	t.Helper()
	event, err := eventlog.NewRawEvent(h.tenant.ID, topic, json.RawMessage(`{}`))
	require.NoError(t, err)
	event.CreatedAt = createdAt
	h.events.events = append(h.events.events, *event)
}

func TestHybridList_MergesHalfAndHalf(t *testing.T) {
	h := newHybridHarness(t, nil)

	// Three local events, newest first at base-1m, -3m, -5m
	h.addLocal(t, eventlog.TopicOrdersCreate, h.base.Add(-1*time.Minute))
	h.addLocal(t, eventlog.TopicOrdersCreate, h.base.Add(-3*time.Minute))
	h.addLocal(t, eventlog.TopicProductsCreate, h.base.Add(-5*time.Minute))

	// Three upstream events interleaved
	h.upstream.events = []shopify.UpstreamEvent{
		{SubjectType: "Order", Verb: "create", CreatedAt: h.base.Add(-2 * time.Minute)},
		{SubjectType: "Product", Verb: "update", CreatedAt: h.base.Add(-4 * time.Minute)},
		{SubjectType: "Order", Verb: "update", CreatedAt: h.base.Add(-6 * time.Minute)},
	}

	page, err := h.service.List(context.Background(), Query{TenantID: h.tenant.ID, Source: SourceHybrid, Limit: 4})

	require.NoError(t, err)
	assert.Len(t, page.Events, 4, "merge truncates to the requested limit")
	assert.Equal(t, 2, page.FromDB, "each source contributes at most half the limit")
	assert.Equal(t, 2, page.FromUpstream)

	// Descending by creation time across both sources
	for i := 1; i < len(page.Events); i++ {
		assert.False(t, page.Events[i].CreatedAt.After(page.Events[i-1].CreatedAt))
	}

	assert.Equal(t, map[string]int{
		"orders/create":   3,
		"products/update": 1,
	}, page.TopicCounts, "histogram covers the returned set only")
}

func TestHybridList_UpstreamFailureDegradesToLocal(t *testing.T) {
	h := newHybridHarness(t, nil)
	h.addLocal(t, eventlog.TopicOrdersCreate, h.base)
	h.upstream.err = assert.AnError

	page, err := h.service.List(context.Background(), Query{TenantID: h.tenant.ID, Source: SourceHybrid, Limit: 10})

	require.NoError(t, err, "hybrid tolerates a dead upstream")
	assert.Equal(t, 1, page.FromDB)
	assert.Zero(t, page.FromUpstream)
	assert.NotEmpty(t, page.UpstreamError)
}

func TestHybridList_UpstreamSourceFailsHard(t *testing.T) {
	h := newHybridHarness(t, nil)
	h.upstream.err = assert.AnError

	_, err := h.service.List(context.Background(), Query{TenantID: h.tenant.ID, Source: SourceUpstream})

	assert.Error(t, err)
}

func TestHybridList_UpstreamRequiresCredentials(t *testing.T) {
	h := newHybridHarness(t, nil)
	h.tenant.AccessToken = ""

	_, err := h.service.List(context.Background(), Query{TenantID: h.tenant.ID, Source: SourceUpstream})

	assert.ErrorIs(t, err, shared.ErrMissingCredentials)
}

func TestHybridList_DBSourceSkipsUpstream(t *testing.T) {
	h := newHybridHarness(t, nil)
	h.addLocal(t, eventlog.TopicOrdersCreate, h.base)

	page, err := h.service.List(context.Background(), Query{TenantID: h.tenant.ID, Source: SourceDB, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 1, page.FromDB)
	assert.Zero(t, h.upstream.calls, "db source must not touch the upstream API")
}

func TestHybridList_InvalidSource(t *testing.T) {
	h := newHybridHarness(t, nil)

	_, err := h.service.List(context.Background(), Query{TenantID: h.tenant.ID, Source: "elasticsearch"})

	assert.Error(t, err)
}

func TestHybridList_TopicFilterAppliesToUpstream(t *testing.T) {
	h := newHybridHarness(t, nil)
	h.upstream.events = []shopify.UpstreamEvent{
		{SubjectType: "Order", Verb: "create", CreatedAt: h.base},
		{SubjectType: "Product", Verb: "create", CreatedAt: h.base},
	}

	page, err := h.service.List(context.Background(), Query{
		TenantID: h.tenant.ID, Source: SourceUpstream, Topic: "orders/create", Limit: 10,
	})

	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "orders/create", page.Events[0].Topic)
}

func TestHybridList_ServesCachedProjection(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	h := newHybridHarness(t, store)
	h.addLocal(t, eventlog.TopicOrdersCreate, h.base)

	query := Query{TenantID: h.tenant.ID, Source: SourceDB, Limit: 10}

	first, err := h.service.List(context.Background(), query)
	require.NoError(t, err)

	// A new event arrives but the projection is still cached
	h.addLocal(t, eventlog.TopicOrdersCreate, h.base.Add(time.Minute))

	second, err := h.service.List(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, len(first.Events), len(second.Events))
}

func TestInferTopic(t *testing.T) {
	cases := map[string]struct {
		subject, verb, want string
	}{
		"order create":    {"Order", "create", "orders/create"},
		"order update":    {"Order", "update", "orders/updated"},
		"product update":  {"Product", "update", "products/update"},
		"customer create": {"Customer", "create", "customers/create"},
		"checkout update": {"Checkout", "update", "checkouts/update"},
		"cart create":     {"Cart", "create", "carts/create"},
		"unknown subject": {"Collection", "create", "collection/create"},
		"empty subject":   {"", "confirm", "confirm"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, InferTopic(tc.subject, tc.verb))
		})
	}
}
