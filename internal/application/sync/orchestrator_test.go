package sync

import (
	"context"
	"testing"
	"time"

	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/shopify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	tenants   *fakeTenantRepo
	products  *fakeProductRepo
	customers *fakeCustomerRepo
	orders    *fakeOrderRepo
	syncLogs  *fakeSyncLogRepo
	upstream  *stubUpstream
	lockStore *cache.MemoryStore
	orch      *Orchestrator
}

func newHarness(t *testing.T, upstream *stubUpstream, tenants ...*identity.Tenant) *harness {
	t.Helper()
	h := &harness{
		tenants:   newFakeTenantRepo(tenants...),
		products:  newFakeProductRepo(),
		customers: newFakeCustomerRepo(),
		orders:    newFakeOrderRepo(),
		syncLogs:  &fakeSyncLogRepo{},
		upstream:  upstream,
		lockStore: cache.NewMemoryStore(),
	}
	t.Cleanup(func() { h.lockStore.Close() })

	reconciler := NewReconciler(h.products, h.customers, h.orders, nil)
	h.orch = NewOrchestrator(
		h.tenants,
		reconciler,
		h.upstream,
		h.syncLogs,
		cache.NewLockManager(h.lockStore, nil),
		nil,
		config.SyncConfig{
			LoadRetryAttempts:  2,
			LoadRetryBaseDelay: time.Millisecond,
			LoadRetryMaxDelay:  4 * time.Millisecond,
			LockTTL:            time.Minute,
		},
		nil,
	)
	return h
}

func activeTenant(t *testing.T, name, domain string) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant(name, domain)
	require.NoError(t, err)
	tenant.SetCredentials("shpat_test", "key", "secret")
	return tenant
}

func TestSyncTenant_FullSyncAndIdempotence(t *testing.T) {
	tenant := activeTenant(t, "Acme", "acme.myshopify.com")
	processed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	upstream := &stubUpstream{
		products: []shopify.UpstreamProduct{
			{ID: 1, Title: "Widget", Variants: []shopify.UpstreamVariant{{Price: "19.99"}}},
			{ID: 2, Title: "Gadget"},
		},
		customers: []shopify.UpstreamCustomer{
			{ID: 77, Email: "Buyer@Example.com", TotalSpent: "100.50"},
		},
		orders: []shopify.UpstreamOrder{
			{ID: 500, Name: "#1001", TotalPrice: "19.99", ProcessedAt: &processed, Customer: &shopify.UpstreamCustomer{ID: 77}},
			{ID: 501, Name: "#1002"},
		},
	}
	h := newHarness(t, upstream, tenant)
	ctx := context.Background()

	result, err := h.orch.SyncTenant(ctx, tenant.ID, eventlog.SyncJobManual)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Products.Upserted)
	assert.Equal(t, 1, result.Customers.Upserted)
	assert.Equal(t, 2, result.Orders.Upserted)
	assert.True(t, result.Succeeded())

	t.Run("order is linked to the replicated customer", func(t *testing.T) {
		order, err := h.orders.FindByExternalID(ctx, tenant.ID, 500)
		require.NoError(t, err)
		require.NotNil(t, order.CustomerID)
		customer, err := h.customers.FindByExternalID(ctx, tenant.ID, 77)
		require.NoError(t, err)
		assert.Equal(t, customer.ID, *order.CustomerID)
		assert.Equal(t, "buyer@example.com", customer.Email)
	})

	t.Run("order without upstream customer stays unlinked", func(t *testing.T) {
		order, err := h.orders.FindByExternalID(ctx, tenant.ID, 501)
		require.NoError(t, err)
		assert.Nil(t, order.CustomerID)
	})

	t.Run("replaying the same snapshot changes nothing", func(t *testing.T) {
		again, err := h.orch.SyncTenant(ctx, tenant.ID, eventlog.SyncJobManual)
		require.NoError(t, err)
		assert.Equal(t, result.Products.Upserted, again.Products.Upserted)
		assert.Zero(t, again.Products.Removed)

		count, err := h.products.CountForTenant(ctx, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("audit rows recorded", func(t *testing.T) {
		logs, err := h.syncLogs.FindRecentForTenant(ctx, tenant.ID, 10)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, eventlog.SyncOutcomeSuccess, logs[0].Outcome)
		assert.Equal(t, eventlog.SyncJobManual, logs[0].JobType)
	})
}

func TestSyncTenant_PrunesOrphans(t *testing.T) {
	tenant := activeTenant(t, "Acme", "acme.myshopify.com")
	upstream := &stubUpstream{
		products: []shopify.UpstreamProduct{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}},
	}
	h := newHarness(t, upstream, tenant)
	ctx := context.Background()

	_, err := h.orch.SyncTenant(ctx, tenant.ID, eventlog.SyncJobCron)
	require.NoError(t, err)

	// Product 2 disappears upstream
	h.upstream.products = []shopify.UpstreamProduct{{ID: 1, Title: "A"}, {ID: 3, Title: "C"}}

	result, err := h.orch.SyncTenant(ctx, tenant.ID, eventlog.SyncJobCron)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Products.Removed)
	ids, err := h.products.ListExternalIDs(ctx, tenant.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 3}, ids)
}

func TestSyncTenant_PartialFetchSkipsPruning(t *testing.T) {
	tenant := activeTenant(t, "Acme", "acme.myshopify.com")
	h := newHarness(t, &stubUpstream{
		products: []shopify.UpstreamProduct{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}},
	}, tenant)
	ctx := context.Background()

	_, err := h.orch.SyncTenant(ctx, tenant.ID, eventlog.SyncJobCron)
	require.NoError(t, err)

	// Upstream fails mid-walk; only one product arrives
	h.upstream.products = []shopify.UpstreamProduct{{ID: 1, Title: "A"}}
	h.upstream.productsErr = assert.AnError

	result, err := h.orch.SyncTenant(ctx, tenant.ID, eventlog.SyncJobCron)
	require.NoError(t, err)

	assert.True(t, result.Products.Partial)
	assert.Zero(t, result.Products.Removed, "partial snapshots must never prune")
	count, err := h.products.CountForTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSyncTenant_SkipsMissingCredentials(t *testing.T) {
	tenant, err := identity.NewTenant("Globex", "globex.myshopify.com")
	require.NoError(t, err)
	h := newHarness(t, &stubUpstream{}, tenant)
	ctx := context.Background()

	result, err := h.orch.SyncTenant(ctx, tenant.ID, eventlog.SyncJobManual)

	require.NoError(t, err, "missing credentials is a skip, not a failure")
	assert.True(t, result.Skipped)
	assert.Equal(t, "missing upstream credentials", result.SkipReason)

	logs, err := h.syncLogs.FindRecentForTenant(ctx, tenant.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, logs, "a skipped tenant leaves no audit row")
}

func TestSyncTenant_RefusesWhenLocked(t *testing.T) {
	tenant := activeTenant(t, "Acme", "acme.myshopify.com")
	h := newHarness(t, &stubUpstream{}, tenant)
	ctx := context.Background()

	locks := cache.NewLockManager(h.lockStore, nil)
	require.True(t, locks.Acquire(ctx, cache.SyncLockKey(tenant.ID), time.Minute))

	result, err := h.orch.SyncTenant(ctx, tenant.ID, eventlog.SyncJobManual)

	assert.ErrorIs(t, err, shared.ErrSyncLocked)
	require.NotNil(t, result)
	assert.True(t, result.Locked)
}

func TestSyncTenant_RetriesStorageThenSucceeds(t *testing.T) {
	tenant := activeTenant(t, "Acme", "acme.myshopify.com")
	h := newHarness(t, &stubUpstream{}, tenant)
	h.tenants.failures = 1

	result, err := h.orch.SyncTenant(context.Background(), tenant.ID, eventlog.SyncJobManual)

	require.NoError(t, err)
	assert.True(t, result.Succeeded())
}

func TestSyncTenant_StorageUnavailableAfterRetries(t *testing.T) {
	tenant := activeTenant(t, "Acme", "acme.myshopify.com")
	h := newHarness(t, &stubUpstream{}, tenant)
	h.tenants.failures = 10

	_, err := h.orch.SyncTenant(context.Background(), tenant.ID, eventlog.SyncJobManual)

	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)
}

func TestSyncTenant_UnknownTenant(t *testing.T) {
	h := newHarness(t, &stubUpstream{})

	_, err := h.orch.SyncTenant(context.Background(), activeTenant(t, "X", "x.myshopify.com").ID, eventlog.SyncJobManual)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSyncAllTenants_OneBadTenantDoesNotAbortPass(t *testing.T) {
	healthy := activeTenant(t, "Acme", "acme.myshopify.com")
	broken, err := identity.NewTenant("Globex", "globex.myshopify.com")
	require.NoError(t, err)

	h := newHarness(t, &stubUpstream{
		products: []shopify.UpstreamProduct{{ID: 1, Title: "A"}},
	}, healthy, broken)

	pass, err := h.orch.SyncAllTenants(context.Background(), eventlog.SyncJobCron)

	require.NoError(t, err)
	require.Len(t, pass.Results, 2)

	byDomain := make(map[string]TenantSyncResult)
	for _, result := range pass.Results {
		byDomain[result.ShopDomain] = result
	}
	assert.Equal(t, 1, byDomain["acme.myshopify.com"].Products.Upserted)
	assert.True(t, byDomain["globex.myshopify.com"].Skipped)
}

func TestSyncAllTenants_RefusesWhenPassAlreadyRunning(t *testing.T) {
	tenant := activeTenant(t, "Acme", "acme.myshopify.com")
	h := newHarness(t, &stubUpstream{}, tenant)
	ctx := context.Background()

	locks := cache.NewLockManager(h.lockStore, nil)
	require.True(t, locks.Acquire(ctx, cache.SyncAllLockKey(), time.Minute))

	_, err := h.orch.SyncAllTenants(ctx, eventlog.SyncJobCron)

	assert.ErrorIs(t, err, shared.ErrSyncLocked)
}

func TestSyncAllTenants_ReleasesPassLock(t *testing.T) {
	tenant := activeTenant(t, "Acme", "acme.myshopify.com")
	h := newHarness(t, &stubUpstream{}, tenant)
	ctx := context.Background()

	_, err := h.orch.SyncAllTenants(ctx, eventlog.SyncJobCron)
	require.NoError(t, err)

	_, err = h.orch.SyncAllTenants(ctx, eventlog.SyncJobCron)
	assert.NoError(t, err, "a finished pass must not block the next one")
}
