package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/commerce"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/shopify"
)

var errStorageDown = errors.New("storage down")

type replicaKey struct {
	tenantID   uuid.UUID
	externalID int64
}

// fakeProductRepo is an in-memory ProductRepository
type fakeProductRepo struct {
	mu   sync.Mutex
	rows map[replicaKey]commerce.Product
	fail bool
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{rows: make(map[replicaKey]commerce.Product)}
}

func (f *fakeProductRepo) Upsert(ctx context.Context, p *commerce.Product) error {
	if f.fail {
		return errStorageDown
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := replicaKey{p.TenantID, p.ExternalID}
	if existing, ok := f.rows[key]; ok {
		p.ID = existing.ID
	}
	f.rows[key] = *p
	return nil
}

func (f *fakeProductRepo) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*commerce.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[replicaKey{tenantID, externalID}]; ok {
		copied := row
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeProductRepo) ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for key := range f.rows {
		if key.tenantID == tenantID {
			ids = append(ids, key.externalID)
		}
	}
	return ids, nil
}

func (f *fakeProductRepo) DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, id := range externalIDs {
		key := replicaKey{tenantID, id}
		if _, ok := f.rows[key]; ok {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeProductRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	ids, _ := f.ListExternalIDs(ctx, tenantID)
	return int64(len(ids)), nil
}

// fakeCustomerRepo is an in-memory CustomerRepository
type fakeCustomerRepo struct {
	mu   sync.Mutex
	rows map[replicaKey]commerce.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{rows: make(map[replicaKey]commerce.Customer)}
}

func (f *fakeCustomerRepo) Upsert(ctx context.Context, c *commerce.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := replicaKey{c.TenantID, c.ExternalID}
	if existing, ok := f.rows[key]; ok {
		c.ID = existing.ID
	}
	f.rows[key] = *c
	return nil
}

func (f *fakeCustomerRepo) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*commerce.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[replicaKey{tenantID, externalID}]; ok {
		copied := row
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeCustomerRepo) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*commerce.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, row := range f.rows {
		if key.tenantID == tenantID && row.Email == email {
			copied := row
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeCustomerRepo) ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for key := range f.rows {
		if key.tenantID == tenantID {
			ids = append(ids, key.externalID)
		}
	}
	return ids, nil
}

func (f *fakeCustomerRepo) DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, id := range externalIDs {
		key := replicaKey{tenantID, id}
		if _, ok := f.rows[key]; ok {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeCustomerRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	ids, _ := f.ListExternalIDs(ctx, tenantID)
	return int64(len(ids)), nil
}

// fakeOrderRepo is an in-memory OrderRepository
type fakeOrderRepo struct {
	mu   sync.Mutex
	rows map[replicaKey]commerce.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{rows: make(map[replicaKey]commerce.Order)}
}

func (f *fakeOrderRepo) Upsert(ctx context.Context, o *commerce.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := replicaKey{o.TenantID, o.ExternalID}
	if existing, ok := f.rows[key]; ok {
		o.ID = existing.ID
	}
	f.rows[key] = *o
	return nil
}

func (f *fakeOrderRepo) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*commerce.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[replicaKey{tenantID, externalID}]; ok {
		copied := row
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrderRepo) ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for key := range f.rows {
		if key.tenantID == tenantID {
			ids = append(ids, key.externalID)
		}
	}
	return ids, nil
}

func (f *fakeOrderRepo) DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, id := range externalIDs {
		key := replicaKey{tenantID, id}
		if _, ok := f.rows[key]; ok {
			delete(f.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeOrderRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	ids, _ := f.ListExternalIDs(ctx, tenantID)
	return int64(len(ids)), nil
}

func (f *fakeOrderRepo) ExistsForCustomerProcessedSince(ctx context.Context, tenantID, customerID uuid.UUID, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, row := range f.rows {
		if key.tenantID != tenantID || row.CustomerID == nil || *row.CustomerID != customerID {
			continue
		}
		if row.ProcessedAt != nil && !row.ProcessedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// fakeTenantRepo is an in-memory TenantRepository. failures counts down how
// many calls return a storage error before succeeding.
type fakeTenantRepo struct {
	mu       sync.Mutex
	tenants  map[uuid.UUID]identity.Tenant
	failures int
}

func newFakeTenantRepo(tenants ...*identity.Tenant) *fakeTenantRepo {
	repo := &fakeTenantRepo{tenants: make(map[uuid.UUID]identity.Tenant)}
	for _, t := range tenants {
		repo.tenants[t.ID] = *t
	}
	return repo
}

func (f *fakeTenantRepo) failNext() error {
	if f.failures > 0 {
		f.failures--
		return errStorageDown
	}
	return nil
}

func (f *fakeTenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext(); err != nil {
		return nil, err
	}
	if tenant, ok := f.tenants[id]; ok {
		copied := tenant
		return &copied, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeTenantRepo) FindByShopDomain(ctx context.Context, shopDomain string) (*identity.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext(); err != nil {
		return nil, err
	}
	for _, tenant := range f.tenants {
		if tenant.ShopDomain == shopDomain {
			copied := tenant
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeTenantRepo) FindAll(ctx context.Context) ([]identity.Tenant, error) {
	return f.FindAllActive(ctx)
}

func (f *fakeTenantRepo) FindAllActive(ctx context.Context) ([]identity.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext(); err != nil {
		return nil, err
	}
	var out []identity.Tenant
	for _, tenant := range f.tenants {
		if tenant.IsActive() {
			out = append(out, tenant)
		}
	}
	return out, nil
}

func (f *fakeTenantRepo) Save(ctx context.Context, tenant *identity.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants[tenant.ID] = *tenant
	return nil
}

func (f *fakeTenantRepo) ExistsByShopDomain(ctx context.Context, shopDomain string) (bool, error) {
	_, err := f.FindByShopDomain(ctx, shopDomain)
	if err == shared.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// fakeSyncLogRepo records appended audit rows
type fakeSyncLogRepo struct {
	mu   sync.Mutex
	rows []eventlog.SyncLog
}

func (f *fakeSyncLogRepo) Append(ctx context.Context, log *eventlog.SyncLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *log)
	return nil
}

func (f *fakeSyncLogRepo) FindRecentForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]eventlog.SyncLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []eventlog.SyncLog
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].TenantID == tenantID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

// stubUpstream returns canned fetch results
type stubUpstream struct {
	products     []shopify.UpstreamProduct
	customers    []shopify.UpstreamCustomer
	orders       []shopify.UpstreamOrder
	productsErr  error
	customersErr error
	ordersErr    error
}

func (s *stubUpstream) FetchProducts(ctx context.Context, creds shopify.Credentials) ([]shopify.UpstreamProduct, error) {
	return s.products, s.productsErr
}

func (s *stubUpstream) FetchCustomers(ctx context.Context, creds shopify.Credentials) ([]shopify.UpstreamCustomer, error) {
	return s.customers, s.customersErr
}

func (s *stubUpstream) FetchOrders(ctx context.Context, creds shopify.Credentials) ([]shopify.UpstreamOrder, error) {
	return s.orders, s.ordersErr
}
