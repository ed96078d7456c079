package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/commerce"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Upsert creates or updates an order keyed by (tenant_id, external_id)
func (r *GormOrderRepository) Upsert(ctx context.Context, order *commerce.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_number", "email", "currency", "total_price",
			"financial_status", "fulfillment_status",
			"customer_id", "external_customer_id", "processed_at", "updated_at",
		}),
	}).Create(&model).Error
}

// FindByExternalID finds an order by its upstream ID within a tenant
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*commerce.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListExternalIDs returns all upstream IDs known locally for a tenant
func (r *GormOrderRepository) ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ?", tenantID).
		Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteByExternalIDs removes the given upstream IDs for a tenant and
// returns the number of rows deleted
func (r *GormOrderRepository) DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id IN ?", tenantID, externalIDs).
		Delete(&models.OrderModel{})
	return result.RowsAffected, result.Error
}

// CountForTenant returns the number of order replicas for a tenant
func (r *GormOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

// ExistsForCustomerProcessedSince reports whether the customer has at least
// one order processed at or after the given instant
func (r *GormOrderRepository) ExistsForCustomerProcessedSince(ctx context.Context, tenantID, customerID uuid.UUID, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND customer_id = ? AND processed_at >= ?", tenantID, customerID, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ commerce.OrderRepository = (*GormOrderRepository)(nil)
