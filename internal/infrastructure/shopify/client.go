package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/storesync/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the upstream API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client talks to the storefront admin REST API. It is tenant-agnostic:
// credentials are passed per call.
//
// All list endpoints paginate with a since_id cursor. A page shorter than the
// configured page size terminates the walk. Upstream failures mid-walk
// terminate it too; the records accumulated so far are returned alongside the
// error so callers can proceed with partial data.
type Client struct {
	httpClient *http.Client
	apiVersion string
	pageSize   int

	// baseURL overrides the https://{shop-domain} base when set (tests)
	baseURL string
}

// NewClient creates an API client from the upstream configuration
func NewClient(cfg config.ShopifyConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		apiVersion: cfg.APIVersion,
		pageSize:   cfg.PageSize,
	}
}

// NewClientWithBaseURL creates a client pinned to a fixed base URL
func NewClientWithBaseURL(cfg config.ShopifyConfig, baseURL string) *Client {
	c := NewClient(cfg)
	c.baseURL = baseURL
	return c
}

// FetchProducts walks all products for the store
func (c *Client) FetchProducts(ctx context.Context, creds Credentials) ([]UpstreamProduct, error) {
	var all []UpstreamProduct
	sinceID := int64(0)
	for {
		var envelope struct {
			Products []UpstreamProduct `json:"products"`
		}
		if err := c.getPage(ctx, creds, "products.json", sinceID, nil, &envelope); err != nil {
			return all, err
		}
		all = append(all, envelope.Products...)
		if len(envelope.Products) < c.pageSize {
			return all, nil
		}
		sinceID = envelope.Products[len(envelope.Products)-1].ID
	}
}

// FetchCustomers walks all customers for the store
func (c *Client) FetchCustomers(ctx context.Context, creds Credentials) ([]UpstreamCustomer, error) {
	var all []UpstreamCustomer
	sinceID := int64(0)
	for {
		var envelope struct {
			Customers []UpstreamCustomer `json:"customers"`
		}
		if err := c.getPage(ctx, creds, "customers.json", sinceID, nil, &envelope); err != nil {
			return all, err
		}
		all = append(all, envelope.Customers...)
		if len(envelope.Customers) < c.pageSize {
			return all, nil
		}
		sinceID = envelope.Customers[len(envelope.Customers)-1].ID
	}
}

// FetchOrders walks all orders for the store regardless of status
func (c *Client) FetchOrders(ctx context.Context, creds Credentials) ([]UpstreamOrder, error) {
	var all []UpstreamOrder
	sinceID := int64(0)
	extra := url.Values{"status": []string{"any"}}
	for {
		var envelope struct {
			Orders []UpstreamOrder `json:"orders"`
		}
		if err := c.getPage(ctx, creds, "orders.json", sinceID, extra, &envelope); err != nil {
			return all, err
		}
		all = append(all, envelope.Orders...)
		if len(envelope.Orders) < c.pageSize {
			return all, nil
		}
		sinceID = envelope.Orders[len(envelope.Orders)-1].ID
	}
}

// FetchEvents walks the store's admin activity events
func (c *Client) FetchEvents(ctx context.Context, creds Credentials) ([]UpstreamEvent, error) {
	var all []UpstreamEvent
	sinceID := int64(0)
	for {
		var envelope struct {
			Events []UpstreamEvent `json:"events"`
		}
		if err := c.getPage(ctx, creds, "events.json", sinceID, nil, &envelope); err != nil {
			return all, err
		}
		all = append(all, envelope.Events...)
		if len(envelope.Events) < c.pageSize {
			return all, nil
		}
		sinceID = envelope.Events[len(envelope.Events)-1].ID
	}
}

// getPage fetches one page of a list endpoint into envelope
func (c *Client) getPage(ctx context.Context, creds Credentials, resource string, sinceID int64, extra url.Values, envelope any) error {
	endpoint := fmt.Sprintf("%s/admin/api/%s/%s", c.base(creds), c.apiVersion, resource)

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageSize))
	if sinceID > 0 {
		query.Set("since_id", strconv.FormatInt(sinceID, 10))
	}
	for key, values := range extra {
		for _, v := range values {
			query.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shopify: %s returned HTTP %d", resource, resp.StatusCode)
	}

	if err := json.Unmarshal(body, envelope); err != nil {
		return fmt.Errorf("shopify: failed to parse %s response: %w", resource, err)
	}
	return nil
}

func (c *Client) base(creds Credentials) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + creds.ShopDomain
}
