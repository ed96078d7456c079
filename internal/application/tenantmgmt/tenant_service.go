package tenantmgmt

import (
	"context"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TenantService handles tenant onboarding and lifecycle
type TenantService struct {
	tenants identity.TenantRepository
	logger  *zap.Logger
}

// NewTenantService creates a tenant management service
func NewTenantService(tenants identity.TenantRepository, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{tenants: tenants, logger: logger}
}

// CreateTenantRequest carries the fields for onboarding a tenant
type CreateTenantRequest struct {
	Name        string `json:"name" binding:"required"`
	ShopDomain  string `json:"shop_domain" binding:"required"`
	AccessToken string `json:"access_token"`
	APIKey      string `json:"api_key"`
	APISecret   string `json:"api_secret"`
}

// UpdateCredentialsRequest carries replacement upstream credentials
type UpdateCredentialsRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
	APIKey      string `json:"api_key"`
	APISecret   string `json:"api_secret"`
}

// Create onboards a new tenant. Shop domains are unique across tenants.
func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*identity.Tenant, error) {
	tenant, err := identity.NewTenant(req.Name, req.ShopDomain)
	if err != nil {
		return nil, err
	}

	exists, err := s.tenants.ExistsByShopDomain(ctx, tenant.ShopDomain)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("DOMAIN_TAKEN", "A tenant with this shop domain already exists")
	}

	if req.AccessToken != "" {
		tenant.SetCredentials(req.AccessToken, req.APIKey, req.APISecret)
	}
	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info("tenant onboarded",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("shop_domain", tenant.ShopDomain),
	)
	return tenant, nil
}

// Get returns one tenant by id
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return s.tenants.FindByID(ctx, id)
}

// List returns all tenants
func (s *TenantService) List(ctx context.Context) ([]identity.Tenant, error) {
	return s.tenants.FindAll(ctx)
}

// UpdateCredentials replaces a tenant's upstream credentials
func (s *TenantService) UpdateCredentials(ctx context.Context, id uuid.UUID, req UpdateCredentialsRequest) (*identity.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant.SetCredentials(req.AccessToken, req.APIKey, req.APISecret)
	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// Activate re-enables a tenant for syncs
func (s *TenantService) Activate(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return s.transition(ctx, id, (*identity.Tenant).Activate)
}

// Deactivate excludes a tenant from syncs without deleting its data
func (s *TenantService) Deactivate(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return s.transition(ctx, id, (*identity.Tenant).Deactivate)
}

func (s *TenantService) transition(ctx context.Context, id uuid.UUID, apply func(*identity.Tenant) error) (*identity.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(tenant); err != nil {
		return nil, err
	}
	if err := s.tenants.Save(ctx, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}
