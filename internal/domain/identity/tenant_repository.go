package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines the persistence interface for tenants
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByShopDomain(ctx context.Context, shopDomain string) (*Tenant, error)
	FindAll(ctx context.Context) ([]Tenant, error)
	FindAllActive(ctx context.Context) ([]Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
	ExistsByShopDomain(ctx context.Context, shopDomain string) (bool, error)
}
