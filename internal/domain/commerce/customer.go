package commerce

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/shared"
)

// Customer is a local replica row of an upstream storefront customer,
// uniquely identified by (TenantID, ExternalID).
type Customer struct {
	shared.BaseEntity
	TenantID    uuid.UUID
	ExternalID  int64
	Email       string
	FirstName   string
	LastName    string
	OrdersCount int
	TotalSpent  decimal.Decimal
}

// NewCustomer creates a customer replica row for a tenant
func NewCustomer(tenantID uuid.UUID, externalID int64) (*Customer, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	if externalID <= 0 {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External ID must be positive")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ExternalID: externalID,
		TotalSpent: decimal.Zero,
	}, nil
}

// ApplyUpstream overwrites the projected fields with the latest upstream state
func (c *Customer) ApplyUpstream(email, firstName, lastName string, ordersCount int, totalSpent decimal.Decimal) {
	c.Email = strings.ToLower(strings.TrimSpace(email))
	c.FirstName = firstName
	c.LastName = lastName
	c.OrdersCount = ordersCount
	c.TotalSpent = totalSpent
	c.Touch()
}
