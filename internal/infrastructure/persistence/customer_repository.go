package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/commerce"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Upsert creates or updates a customer keyed by (tenant_id, external_id)
func (r *GormCustomerRepository) Upsert(ctx context.Context, customer *commerce.Customer) error {
	var model models.CustomerModel
	model.FromDomain(customer)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "first_name", "last_name", "orders_count", "total_spent", "updated_at",
		}),
	}).Create(&model).Error
}

// FindByExternalID finds a customer by its upstream ID within a tenant
func (r *GormCustomerRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*commerce.Customer, error) {
	var model models.CustomerModel
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

// FindByEmail finds a customer by email within a tenant
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*commerce.Customer, error) {
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, strings.ToLower(email)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListExternalIDs returns all upstream IDs known locally for a tenant
func (r *GormCustomerRepository) ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ?", tenantID).
		Pluck("external_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteByExternalIDs removes the given upstream IDs for a tenant and
// returns the number of rows deleted
func (r *GormCustomerRepository) DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id IN ?", tenantID, externalIDs).
		Delete(&models.CustomerModel{})
	return result.RowsAffected, result.Error
}

// CountForTenant returns the number of customer replicas for a tenant
func (r *GormCustomerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

var _ commerce.CustomerRepository = (*GormCustomerRepository)(nil)
