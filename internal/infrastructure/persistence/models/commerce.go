package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/commerce"
)

// ProductModel is the persistence model for product replicas. The
// (tenant_id, external_id) pair is the natural key upserts resolve on.
type ProductModel struct {
	BaseModel
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_tenant_external"`
	ExternalID  int64           `gorm:"not null;uniqueIndex:idx_products_tenant_external"`
	Title       string          `gorm:"size:500"`
	Handle      string          `gorm:"size:500"`
	Vendor      string          `gorm:"size:200"`
	ProductType string          `gorm:"size:200"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	Status      string          `gorm:"size:50"`
}

// TableName specifies the table name for ProductModel
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain product
func (m *ProductModel) ToDomain() *commerce.Product {
	return &commerce.Product{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		ExternalID:  m.ExternalID,
		Title:       m.Title,
		Handle:      m.Handle,
		Vendor:      m.Vendor,
		ProductType: m.ProductType,
		Price:       m.Price,
		Status:      m.Status,
	}
}

// FromDomain populates the persistence model from a domain product
func (m *ProductModel) FromDomain(p *commerce.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.TenantID = p.TenantID
	m.ExternalID = p.ExternalID
	m.Title = p.Title
	m.Handle = p.Handle
	m.Vendor = p.Vendor
	m.ProductType = p.ProductType
	m.Price = p.Price
	m.Status = p.Status
}

// CustomerModel is the persistence model for customer replicas
type CustomerModel struct {
	BaseModel
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_customers_tenant_external"`
	ExternalID  int64           `gorm:"not null;uniqueIndex:idx_customers_tenant_external"`
	Email       string          `gorm:"size:320;index:idx_customers_tenant_email"`
	FirstName   string          `gorm:"size:200"`
	LastName    string          `gorm:"size:200"`
	OrdersCount int             `gorm:"not null;default:0"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
}

// TableName specifies the table name for CustomerModel
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain customer
func (m *CustomerModel) ToDomain() *commerce.Customer {
	return &commerce.Customer{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		ExternalID:  m.ExternalID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		OrdersCount: m.OrdersCount,
		TotalSpent:  m.TotalSpent,
	}
}

// FromDomain populates the persistence model from a domain customer
func (m *CustomerModel) FromDomain(c *commerce.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.TenantID = c.TenantID
	m.ExternalID = c.ExternalID
	m.Email = c.Email
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.OrdersCount = c.OrdersCount
	m.TotalSpent = c.TotalSpent
}

// OrderModel is the persistence model for order replicas. CustomerID is a
// nullable weak reference, deliberately without a foreign key constraint so
// orders survive customer rows arriving later or never.
type OrderModel struct {
	BaseModel
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_orders_tenant_external"`
	ExternalID         int64           `gorm:"not null;uniqueIndex:idx_orders_tenant_external"`
	OrderNumber        string          `gorm:"size:50"`
	Email              string          `gorm:"size:320"`
	Currency           string          `gorm:"size:10"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	FinancialStatus    string          `gorm:"size:50"`
	FulfillmentStatus  string          `gorm:"size:50"`
	CustomerID         *uuid.UUID      `gorm:"type:uuid;index:idx_orders_tenant_customer"`
	ExternalCustomerID *int64
	ProcessedAt        *time.Time `gorm:"index"`
}

// TableName specifies the table name for OrderModel
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain order
func (m *OrderModel) ToDomain() *commerce.Order {
	return &commerce.Order{
		BaseEntity:         m.BaseModel.ToDomain(),
		TenantID:           m.TenantID,
		ExternalID:         m.ExternalID,
		OrderNumber:        m.OrderNumber,
		Email:              m.Email,
		Currency:           m.Currency,
		TotalPrice:         m.TotalPrice,
		FinancialStatus:    m.FinancialStatus,
		FulfillmentStatus:  m.FulfillmentStatus,
		CustomerID:         m.CustomerID,
		ExternalCustomerID: m.ExternalCustomerID,
		ProcessedAt:        m.ProcessedAt,
	}
}

// FromDomain populates the persistence model from a domain order
func (m *OrderModel) FromDomain(o *commerce.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.TenantID = o.TenantID
	m.ExternalID = o.ExternalID
	m.OrderNumber = o.OrderNumber
	m.Email = o.Email
	m.Currency = o.Currency
	m.TotalPrice = o.TotalPrice
	m.FinancialStatus = o.FinancialStatus
	m.FulfillmentStatus = o.FulfillmentStatus
	m.CustomerID = o.CustomerID
	m.ExternalCustomerID = o.ExternalCustomerID
	m.ProcessedAt = o.ProcessedAt
}
