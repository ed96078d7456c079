package identity

import (
	"strings"

	"github.com/storesync/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// Tenant represents one onboarded storefront with its own credentials and
// isolated data. It is the aggregate root for tenant-related operations.
//
// Tenants are never hard-deleted by this core; deactivation is the strongest
// lifecycle transition it performs.
type Tenant struct {
	shared.BaseEntity
	Name        string
	ShopDomain  string // e.g. "acme.myshopify.com", unique across tenants
	AccessToken string // Admin API access token, sent as X-Shopify-Access-Token
	APIKey      string
	APISecret   string
	Status      TenantStatus
}

// NewTenant creates a new tenant with required fields
func NewTenant(name, shopDomain string) (*Tenant, error) {
	if err := validateTenantName(name); err != nil {
		return nil, err
	}
	domain, err := normalizeShopDomain(shopDomain)
	if err != nil {
		return nil, err
	}

	return &Tenant{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		ShopDomain: domain,
		Status:     TenantStatusActive,
	}, nil
}

// SetCredentials updates the tenant's storefront API credentials
func (t *Tenant) SetCredentials(accessToken, apiKey, apiSecret string) {
	t.AccessToken = accessToken
	t.APIKey = apiKey
	t.APISecret = apiSecret
	t.Touch()
}

// Rename updates the tenant's display name
func (t *Tenant) Rename(name string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}
	t.Name = name
	t.Touch()
	return nil
}

// Activate activates the tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}
	t.Status = TenantStatusActive
	t.Touch()
	return nil
}

// Deactivate deactivates the tenant; deactivated tenants are skipped by syncs
func (t *Tenant) Deactivate() error {
	if t.Status == TenantStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Tenant is already inactive")
	}
	t.Status = TenantStatusInactive
	t.Touch()
	return nil
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// HasUsableCredentials reports whether the tenant carries enough credentials
// to talk to its storefront API. Tenants without them are skipped by syncs,
// not treated as fatal.
func (t *Tenant) HasUsableCredentials() bool {
	return t.ShopDomain != "" && t.AccessToken != ""
}

func validateTenantName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}

func normalizeShopDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Shop domain cannot be empty")
	}
	if len(domain) > 200 {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Shop domain cannot exceed 200 characters")
	}
	if strings.ContainsAny(domain, " /") {
		return "", shared.NewDomainError("INVALID_DOMAIN", "Shop domain must be a bare hostname")
	}
	return domain, nil
}
