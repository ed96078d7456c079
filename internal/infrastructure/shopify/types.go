package shopify

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credentials identifies one tenant's upstream store
type Credentials struct {
	ShopDomain  string
	AccessToken string
}

// UpstreamProduct is the wire shape of a product as returned by the
// storefront admin API. Prices arrive as strings on variants.
type UpstreamProduct struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Handle      string            `json:"handle"`
	Vendor      string            `json:"vendor"`
	ProductType string            `json:"product_type"`
	Status      string            `json:"status"`
	Variants    []UpstreamVariant `json:"variants"`
}

// UpstreamVariant carries the per-variant price
type UpstreamVariant struct {
	ID    int64  `json:"id"`
	Price string `json:"price"`
}

// Price returns the first variant's price, zero when absent or malformed
func (p *UpstreamProduct) Price() decimal.Decimal {
	if len(p.Variants) == 0 {
		return decimal.Zero
	}
	return ParseDecimal(p.Variants[0].Price)
}

// UpstreamCustomer is the wire shape of a customer
type UpstreamCustomer struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	OrdersCount int    `json:"orders_count"`
	TotalSpent  string `json:"total_spent"`
}

// UpstreamOrder is the wire shape of an order
type UpstreamOrder struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Currency          string            `json:"currency"`
	TotalPrice        string            `json:"total_price"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	ProcessedAt       *time.Time        `json:"processed_at"`
	Customer          *UpstreamCustomer `json:"customer"`
}

// UpstreamEvent is the wire shape of an admin activity event
type UpstreamEvent struct {
	ID          int64     `json:"id"`
	SubjectID   int64     `json:"subject_id"`
	SubjectType string    `json:"subject_type"`
	Verb        string    `json:"verb"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// ParseDecimal safely parses a string to decimal. Empty or malformed input
// yields zero so one bad upstream value never aborts a sync.
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
