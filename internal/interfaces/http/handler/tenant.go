package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/application/tenantmgmt"
	"github.com/storesync/backend/internal/domain/identity"
)

// TenantHandler handles tenant management API endpoints
type TenantHandler struct {
	BaseHandler
	tenants *tenantmgmt.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenants *tenantmgmt.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// TenantResponse is the API representation of a tenant. Credentials are
// never echoed back; only their presence is.
type TenantResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ShopDomain     string    `json:"shop_domain"`
	Status         string    `json:"status"`
	HasCredentials bool      `json:"has_credentials"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toTenantResponse(t *identity.Tenant) TenantResponse {
	return TenantResponse{
		ID:             t.ID.String(),
		Name:           t.Name,
		ShopDomain:     t.ShopDomain,
		Status:         string(t.Status),
		HasCredentials: t.HasUsableCredentials(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// RegisterRoutes registers tenant management routes
func (h *TenantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tenants := rg.Group("/tenants")
	{
		tenants.POST("", h.Create)
		tenants.GET("", h.List)
		tenants.GET("/:id", h.GetByID)
		tenants.PUT("/:id/credentials", h.UpdateCredentials)
		tenants.POST("/:id/activate", h.Activate)
		tenants.POST("/:id/deactivate", h.Deactivate)
	}
}

// Create onboards a new tenant
func (h *TenantHandler) Create(c *gin.Context) {
	var req tenantmgmt.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	tenant, err := h.tenants.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTenantResponse(tenant))
}

// List returns all tenants
func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.tenants.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]TenantResponse, len(tenants))
	for i := range tenants {
		out[i] = toTenantResponse(&tenants[i])
	}
	h.Success(c, out)
}

// GetByID returns one tenant
func (h *TenantHandler) GetByID(c *gin.Context) {
	id, ok := parseTenantID(c)
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	tenant, err := h.tenants.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTenantResponse(tenant))
}

// UpdateCredentials replaces a tenant's storefront credentials
func (h *TenantHandler) UpdateCredentials(c *gin.Context) {
	id, ok := parseTenantID(c)
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req tenantmgmt.UpdateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	tenant, err := h.tenants.UpdateCredentials(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTenantResponse(tenant))
}

// Activate re-enables a tenant for syncs
func (h *TenantHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.tenants.Activate)
}

// Deactivate excludes a tenant from syncs
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.lifecycle(c, h.tenants.Deactivate)
}

func (h *TenantHandler) lifecycle(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) (*identity.Tenant, error)) {
	id, ok := parseTenantID(c)
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	tenant, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTenantResponse(tenant))
}
