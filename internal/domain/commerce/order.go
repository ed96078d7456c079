package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/shared"
)

// Order is a local replica row of an upstream storefront order, uniquely
// identified by (TenantID, ExternalID).
//
// CustomerID is a weak reference to a locally-known Customer, resolved by
// matching the upstream customer id within the same tenant. Its absence is
// valid: an order may have no resolved customer.
type Order struct {
	shared.BaseEntity
	TenantID           uuid.UUID
	ExternalID         int64
	OrderNumber        string
	Email              string
	Currency           string
	TotalPrice         decimal.Decimal
	FinancialStatus    string
	FulfillmentStatus  string
	CustomerID         *uuid.UUID
	ExternalCustomerID *int64
	ProcessedAt        *time.Time
}

// NewOrder creates an order replica row for a tenant
func NewOrder(tenantID uuid.UUID, externalID int64) (*Order, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	if externalID <= 0 {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External ID must be positive")
	}
	return &Order{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ExternalID: externalID,
		TotalPrice: decimal.Zero,
	}, nil
}

// ApplyUpstream overwrites the projected fields with the latest upstream state
func (o *Order) ApplyUpstream(orderNumber, email, currency, financialStatus, fulfillmentStatus string, totalPrice decimal.Decimal, processedAt *time.Time) {
	o.OrderNumber = orderNumber
	o.Email = email
	o.Currency = currency
	o.FinancialStatus = financialStatus
	o.FulfillmentStatus = fulfillmentStatus
	o.TotalPrice = totalPrice
	o.ProcessedAt = processedAt
	o.Touch()
}

// LinkCustomer records the weak reference to a locally-known customer
func (o *Order) LinkCustomer(customerID uuid.UUID, externalCustomerID int64) {
	o.CustomerID = &customerID
	o.ExternalCustomerID = &externalCustomerID
}
