package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/commerce"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Upsert creates or updates a product keyed by (tenant_id, external_id).
// Replays of the same upstream state are no-ops apart from updated_at.
func (r *GormProductRepository) Upsert(ctx context.Context, product *commerce.Product) error {
	var model models.ProductModel
	model.FromDomain(product)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "handle", "vendor", "product_type", "price", "status", "updated_at",
		}),
	}).Create(&model).Error
}

// FindByExternalID finds a product by its upstream ID within a tenant
func (r *GormProductRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*commerce.Product, error) {
	var model models.ProductModel
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
func (r *GormProductRepository) ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ?", tenantID).
		Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteByExternalIDs removes the given upstream IDs for a tenant and
// returns the number of rows deleted
func (r *GormProductRepository) DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id IN ?", tenantID, externalIDs).
		Delete(&models.ProductModel{})
	return result.RowsAffected, result.Error
}

// CountForTenant returns the number of product replicas for a tenant
func (r *GormProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

var _ commerce.ProductRepository = (*GormProductRepository)(nil)
