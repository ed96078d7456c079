package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/shopify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UpstreamClient abstracts the storefront API for orchestration. Partial
// results alongside an error are valid and are reconciled without pruning.
type UpstreamClient interface {
	FetchProducts(ctx context.Context, creds shopify.Credentials) ([]shopify.UpstreamProduct, error)
	FetchCustomers(ctx context.Context, creds shopify.Credentials) ([]shopify.UpstreamCustomer, error)
	FetchOrders(ctx context.Context, creds shopify.Credentials) ([]shopify.UpstreamOrder, error)
}

// Orchestrator drives full syncs: single-tenant on demand and all-tenant
// passes from the cron trigger.
type Orchestrator struct {
	tenants     identity.TenantRepository
	reconciler  *Reconciler
	client      UpstreamClient
	syncLogs    eventlog.SyncLogRepository
	locks       *cache.LockManager
	projections cache.Store // nil disables projection invalidation
	cfg         config.SyncConfig
	logger      *zap.Logger
}

// NewOrchestrator creates a sync orchestrator
func NewOrchestrator(
	tenants identity.TenantRepository,
	reconciler *Reconciler,
	client UpstreamClient,
	syncLogs eventlog.SyncLogRepository,
	locks *cache.LockManager,
	projections cache.Store,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		tenants:     tenants,
		reconciler:  reconciler,
		client:      client,
		syncLogs:    syncLogs,
		locks:       locks,
		projections: projections,
		cfg:         cfg,
		logger:      logger,
	}
}

// SyncTenant runs a full sync for one tenant. Returns ErrSyncLocked when a
// sync for the tenant is already in flight and ErrStorageUnavailable when
// the tenant row cannot be loaded after bounded retries.
func (o *Orchestrator) SyncTenant(ctx context.Context, tenantID uuid.UUID, jobType eventlog.SyncJobType) (*TenantSyncResult, error) {
	var tenant *identity.Tenant
	err := o.withStorageRetry(ctx, func() error {
		var loadErr error
		tenant, loadErr = o.tenants.FindByID(ctx, tenantID)
		return loadErr
	})
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.ErrNotFound
		}
		o.logger.Error("tenant load failed after retries",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
		return nil, shared.ErrStorageUnavailable
	}

	return o.syncLoadedTenant(ctx, tenant, jobType)
}

// SyncAllTenants runs a full pass over every active tenant. A failing tenant
// never aborts the pass; its result carries the error. Returns ErrSyncLocked
// when another all-tenant pass is already running.
func (o *Orchestrator) SyncAllTenants(ctx context.Context, jobType eventlog.SyncJobType) (*AllTenantsResult, error) {
	passKey := cache.SyncAllLockKey()
	if !o.locks.Acquire(ctx, passKey, o.cfg.LockTTL) {
		return nil, shared.ErrSyncLocked
	}
	defer o.locks.Release(ctx, passKey)

	var tenants []identity.Tenant
	err := o.withStorageRetry(ctx, func() error {
		var loadErr error
		tenants, loadErr = o.tenants.FindAllActive(ctx)
		return loadErr
	})
	if err != nil {
		o.logger.Error("tenant list load failed after retries", zap.Error(err))
		return nil, shared.ErrStorageUnavailable
	}

	pass := &AllTenantsResult{StartedAt: time.Now()}
	for i := range tenants {
		result, err := o.syncLoadedTenant(ctx, &tenants[i], jobType)
		if err != nil && result == nil {
			result = &TenantSyncResult{
				TenantID:   tenants[i].ID,
				ShopDomain: tenants[i].ShopDomain,
				JobType:    jobType,
				Error:      err.Error(),
			}
		}
		pass.Results = append(pass.Results, *result)

		if i < len(tenants)-1 && o.cfg.TenantPause > 0 {
			select {
			case <-ctx.Done():
				pass.FinishedAt = time.Now()
				return pass, ctx.Err()
			case <-time.After(o.cfg.TenantPause):
			}
		}
	}
	pass.FinishedAt = time.Now()
	return pass, nil
}

func (o *Orchestrator) syncLoadedTenant(ctx context.Context, tenant *identity.Tenant, jobType eventlog.SyncJobType) (*TenantSyncResult, error) {
	started := time.Now()
	result := &TenantSyncResult{
		TenantID:   tenant.ID,
		ShopDomain: tenant.ShopDomain,
		JobType:    jobType,
	}

	if !tenant.IsActive() {
		result.Skipped = true
		result.SkipReason = "tenant is inactive"
		result.Duration = time.Since(started)
		return result, nil
	}
	// The skip is visible in the result list only; the audit log records
	// attempts against the upstream, and none was made.
	if !tenant.HasUsableCredentials() {
		result.Skipped = true
		result.SkipReason = "missing upstream credentials"
		result.Duration = time.Since(started)
		return result, nil
	}

	lockKey := cache.SyncLockKey(tenant.ID)
	if !o.locks.Acquire(ctx, lockKey, o.cfg.LockTTL) {
		result.Locked = true
		result.Duration = time.Since(started)
		return result, shared.ErrSyncLocked
	}
	defer o.locks.Release(ctx, lockKey)

	creds := shopify.Credentials{ShopDomain: tenant.ShopDomain, AccessToken: tenant.AccessToken}

	var (
		products     []shopify.UpstreamProduct
		customers    []shopify.UpstreamCustomer
		orders       []shopify.UpstreamOrder
		productsErr  error
		customersErr error
		ordersErr    error
	)

	// Fetches run concurrently; a failed fetch yields a partial snapshot,
	// never a failed sync.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, productsErr = o.client.FetchProducts(gctx, creds)
		return nil
	})
	g.Go(func() error {
		customers, customersErr = o.client.FetchCustomers(gctx, creds)
		return nil
	})
	g.Go(func() error {
		orders, ordersErr = o.client.FetchOrders(gctx, creds)
		return nil
	})
	_ = g.Wait()

	for _, fetchErr := range []error{productsErr, customersErr, ordersErr} {
		if fetchErr != nil {
			o.logger.Warn("upstream fetch incomplete, proceeding with partial snapshot",
				zap.String("tenant_id", tenant.ID.String()),
				zap.String("shop_domain", tenant.ShopDomain),
				zap.Error(fetchErr),
			)
		}
	}

	// Customers first so order linking can resolve against fresh rows
	var reconcileErr error
	result.Customers, reconcileErr = o.reconciler.ReconcileCustomers(ctx, tenant.ID, customers, customersErr == nil)
	if reconcileErr == nil {
		result.Products, reconcileErr = o.reconciler.ReconcileProducts(ctx, tenant.ID, products, productsErr == nil)
	}
	if reconcileErr == nil {
		result.Orders, reconcileErr = o.reconciler.ReconcileOrders(ctx, tenant.ID, orders, ordersErr == nil)
	}

	result.Duration = time.Since(started)

	if reconcileErr != nil {
		result.Error = reconcileErr.Error()
		o.appendSyncLog(ctx, tenant.ID, jobType, eventlog.SyncOutcomeError, reconcileErr.Error())
		return result, reconcileErr
	}

	message := fmt.Sprintf("products=%d customers=%d orders=%d removed=%d",
		result.Products.Upserted, result.Customers.Upserted, result.Orders.Upserted,
		result.Products.Removed+result.Customers.Removed+result.Orders.Removed)
	o.appendSyncLog(ctx, tenant.ID, jobType, eventlog.SyncOutcomeSuccess, message)
	o.invalidateProjections(tenant.ID)

	o.logger.Info("tenant sync completed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("shop_domain", tenant.ShopDomain),
		zap.String("job_type", string(jobType)),
		zap.Duration("duration", result.Duration),
		zap.String("summary", message),
	)
	return result, nil
}

// appendSyncLog writes an audit row; failures are logged, never fatal
func (o *Orchestrator) appendSyncLog(ctx context.Context, tenantID uuid.UUID, jobType eventlog.SyncJobType, outcome eventlog.SyncOutcome, message string) {
	row, err := eventlog.NewSyncLog(tenantID, jobType, outcome, message)
	if err != nil {
		return
	}
	if err := o.syncLogs.Append(ctx, row); err != nil {
		o.logger.Warn("failed to append sync log",
			zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
}

// invalidateProjections drops cached event projections for a tenant.
// Fire-and-forget: the cache repopulates on the next read.
func (o *Orchestrator) invalidateProjections(tenantID uuid.UUID) {
	if o.projections == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.projections.DeleteByPrefix(ctx, "events:"+tenantID.String()); err != nil {
			o.logger.Warn("projection invalidation failed",
				zap.String("tenant_id", tenantID.String()), zap.Error(err))
		}
	}()
}

// withStorageRetry retries fn with bounded exponential backoff. Not-found is
// terminal. The repositories map row absence to ErrNotFound, so anything else
// surfacing from a read is treated as the storage layer being unreachable;
// a non-transient error just burns the bounded budget before surfacing.
func (o *Orchestrator) withStorageRetry(ctx context.Context, fn func() error) error {
	attempts := o.cfg.LoadRetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil || err == shared.ErrNotFound {
			return err
		}

		if attempt == attempts-1 {
			break
		}
		delay := o.cfg.LoadRetryBaseDelay << attempt
		if o.cfg.LoadRetryMaxDelay > 0 && delay > o.cfg.LoadRetryMaxDelay {
			delay = o.cfg.LoadRetryMaxDelay
		}
		o.logger.Warn("storage access failed, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
