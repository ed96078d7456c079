package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShopDomain finds a tenant by its shop domain
func (r *GormTenantRepository) FindByShopDomain(ctx context.Context, shopDomain string) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("shop_domain = ?", shopDomain).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all tenants ordered by creation time
func (r *GormTenantRepository) FindAll(ctx context.Context) ([]identity.Tenant, error) {
	var tenantModels []models.TenantModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&tenantModels).Error; err != nil {
		return nil, err
	}
	return toDomainTenants(tenantModels), nil
}

// FindAllActive returns all active tenants ordered by creation time
func (r *GormTenantRepository) FindAllActive(ctx context.Context) ([]identity.Tenant, error) {
	var tenantModels []models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(identity.TenantStatusActive)).
		Order("created_at ASC").
		Find(&tenantModels).Error; err != nil {
		return nil, err
	}
	return toDomainTenants(tenantModels), nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	var model models.TenantModel
	model.FromDomain(tenant)
	return r.db.WithContext(ctx).Save(&model).Error
}

// ExistsByShopDomain checks whether a tenant with the given shop domain exists
func (r *GormTenantRepository) ExistsByShopDomain(ctx context.Context, shopDomain string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TenantModel{}).
		Where("shop_domain = ?", shopDomain).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func toDomainTenants(tenantModels []models.TenantModel) []identity.Tenant {
	tenants := make([]identity.Tenant, len(tenantModels))
	for i := range tenantModels {
		tenants[i] = *tenantModels[i].ToDomain()
	}
	return tenants
}

var _ identity.TenantRepository = (*GormTenantRepository)(nil)
