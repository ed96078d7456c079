package commerce

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/shared"
)

// Product is a local replica row of an upstream storefront product.
//
// A product is uniquely identified by (TenantID, ExternalID); every other
// field is a last-write-wins projection of upstream state.
type Product struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	ExternalID  int64
	Title       string
	Handle      string
	Vendor      string
	ProductType string
	Price       decimal.Decimal
	Status      string
}

// NewProduct creates a product replica row for a tenant
func NewProduct(tenantID uuid.UUID, externalID int64, title string) (*Product, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	if externalID <= 0 {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External ID must be positive")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ExternalID: externalID,
		Title:      title,
		Price:      decimal.Zero,
	}, nil
}

// ApplyUpstream overwrites the projected fields with the latest upstream state
func (p *Product) ApplyUpstream(title, handle, vendor, productType, status string, price decimal.Decimal) {
	p.Title = title
	p.Handle = handle
	p.Vendor = vendor
	p.ProductType = productType
	p.Status = status
	p.Price = price
	p.Touch()
}
