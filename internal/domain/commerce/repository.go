package commerce

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductRepository defines the persistence interface for product replicas.
// Upsert is a create-or-update keyed by (tenant_id, external_id) and must
// never create duplicates for the same pair.
type ProductRepository interface {
	Upsert(ctx context.Context, product *Product) error
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*Product, error)
	ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error)
	DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// CustomerRepository defines the persistence interface for customer replicas
type CustomerRepository interface {
	Upsert(ctx context.Context, customer *Customer) error
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*Customer, error)
	FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Customer, error)
	ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error)
	DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// OrderRepository defines the persistence interface for order replicas
type OrderRepository interface {
	Upsert(ctx context.Context, order *Order) error
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID int64) (*Order, error)
	ListExternalIDs(ctx context.Context, tenantID uuid.UUID) ([]int64, error)
	DeleteByExternalIDs(ctx context.Context, tenantID uuid.UUID, externalIDs []int64) (int64, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	// ExistsForCustomerProcessedSince reports whether the customer has at
	// least one order processed at or after the given instant. Used by the
	// abandonment sweep to detect converted sessions.
	ExistsForCustomerProcessedSince(ctx context.Context, tenantID, customerID uuid.UUID, since time.Time) (bool, error)
}
