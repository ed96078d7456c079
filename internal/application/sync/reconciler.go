package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/commerce"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/shopify"
	"go.uber.org/zap"
)

// Reconciler applies one fetched upstream snapshot to the local replica
// tables. Upserts are idempotent; replaying the same snapshot changes
// nothing but timestamps.
type Reconciler struct {
	products  commerce.ProductRepository
	customers commerce.CustomerRepository
	orders    commerce.OrderRepository
	logger    *zap.Logger
}

// NewReconciler creates a reconciler over the replica repositories
func NewReconciler(
	products commerce.ProductRepository,
	customers commerce.CustomerRepository,
	orders commerce.OrderRepository,
	logger *zap.Logger,
) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		products:  products,
		customers: customers,
		orders:    orders,
		logger:    logger,
	}
}

// ReconcileProducts upserts the fetched products and, when prune is set,
// removes local rows whose upstream id no longer exists. Prune must be false
// for partial fetches: absence from a partial snapshot proves nothing.
func (r *Reconciler) ReconcileProducts(ctx context.Context, tenantID uuid.UUID, upstream []shopify.UpstreamProduct, prune bool) (ResourceResult, error) {
	result := ResourceResult{Fetched: len(upstream), Partial: !prune}
	seen := make(map[int64]struct{}, len(upstream))

	for i := range upstream {
		up := &upstream[i]
		product, err := commerce.NewProduct(tenantID, up.ID, up.Title)
		if err != nil {
			r.logger.Warn("skipping malformed upstream product",
				zap.Int64("external_id", up.ID), zap.Error(err))
			continue
		}
		product.ApplyUpstream(up.Title, up.Handle, up.Vendor, up.ProductType, up.Status, up.Price())

		if err := r.products.Upsert(ctx, product); err != nil {
			return result, err
		}
		seen[up.ID] = struct{}{}
		result.Upserted++
	}

	if prune {
		removed, err := r.pruneOrphans(ctx, tenantID, seen, r.products.ListExternalIDs, r.products.DeleteByExternalIDs)
		if err != nil {
			return result, err
		}
		result.Removed = removed
	}
	return result, nil
}

// ReconcileCustomers upserts the fetched customers, pruning orphans when the
// snapshot is complete
func (r *Reconciler) ReconcileCustomers(ctx context.Context, tenantID uuid.UUID, upstream []shopify.UpstreamCustomer, prune bool) (ResourceResult, error) {
	result := ResourceResult{Fetched: len(upstream), Partial: !prune}
	seen := make(map[int64]struct{}, len(upstream))

	for i := range upstream {
		up := &upstream[i]
		customer, err := commerce.NewCustomer(tenantID, up.ID)
		if err != nil {
			r.logger.Warn("skipping malformed upstream customer",
				zap.Int64("external_id", up.ID), zap.Error(err))
			continue
		}
		customer.ApplyUpstream(up.Email, up.FirstName, up.LastName, up.OrdersCount, shopify.ParseDecimal(up.TotalSpent))

		if err := r.customers.Upsert(ctx, customer); err != nil {
			return result, err
		}
		seen[up.ID] = struct{}{}
		result.Upserted++
	}

	if prune {
		removed, err := r.pruneOrphans(ctx, tenantID, seen, r.customers.ListExternalIDs, r.customers.DeleteByExternalIDs)
		if err != nil {
			return result, err
		}
		result.Removed = removed
	}
	return result, nil
}

// ReconcileOrders upserts the fetched orders. Each order carrying an
// upstream customer id is linked to the matching local customer row when one
// exists; a missing row leaves the order unlinked, never fails the sync.
func (r *Reconciler) ReconcileOrders(ctx context.Context, tenantID uuid.UUID, upstream []shopify.UpstreamOrder, prune bool) (ResourceResult, error) {
	result := ResourceResult{Fetched: len(upstream), Partial: !prune}
	seen := make(map[int64]struct{}, len(upstream))

	for i := range upstream {
		up := &upstream[i]
		order, err := commerce.NewOrder(tenantID, up.ID)
		if err != nil {
			r.logger.Warn("skipping malformed upstream order",
				zap.Int64("external_id", up.ID), zap.Error(err))
			continue
		}
		order.ApplyUpstream(up.Name, up.Email, up.Currency, up.FinancialStatus, up.FulfillmentStatus,
			shopify.ParseDecimal(up.TotalPrice), up.ProcessedAt)

		if up.Customer != nil && up.Customer.ID > 0 {
			local, err := r.customers.FindByExternalID(ctx, tenantID, up.Customer.ID)
			switch {
			case err == nil:
				order.LinkCustomer(local.ID, up.Customer.ID)
			case errors.Is(err, shared.ErrNotFound):
				// Customer not replicated yet; leave unlinked
			default:
				return result, err
			}
		}

		if err := r.orders.Upsert(ctx, order); err != nil {
			return result, err
		}
		seen[up.ID] = struct{}{}
		result.Upserted++
	}

	if prune {
		removed, err := r.pruneOrphans(ctx, tenantID, seen, r.orders.ListExternalIDs, r.orders.DeleteByExternalIDs)
		if err != nil {
			return result, err
		}
		result.Removed = removed
	}
	return result, nil
}

// pruneOrphans deletes local rows whose external id was not part of the
// fetched snapshot
func (r *Reconciler) pruneOrphans(
	ctx context.Context,
	tenantID uuid.UUID,
	seen map[int64]struct{},
	list func(context.Context, uuid.UUID) ([]int64, error),
	remove func(context.Context, uuid.UUID, []int64) (int64, error),
) (int64, error) {
	localIDs, err := list(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	var orphans []int64
	for _, id := range localIDs {
		if _, ok := seen[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	return remove(ctx, tenantID, orphans)
}
