package sync

import (
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/eventlog"
)

// ResourceResult summarizes reconciliation of one resource kind for a tenant
type ResourceResult struct {
	Fetched  int   `json:"fetched"`
	Upserted int   `json:"upserted"`
	Removed  int64 `json:"removed"`
	// Partial marks that the upstream walk terminated early; local rows
	// were updated from what arrived but orphan pruning was skipped.
	Partial bool `json:"partial"`
}

// TenantSyncResult is the outcome of one tenant's sync attempt
type TenantSyncResult struct {
	TenantID   uuid.UUID            `json:"tenant_id"`
	ShopDomain string               `json:"shop_domain"`
	JobType    eventlog.SyncJobType `json:"job_type"`
	Skipped    bool                 `json:"skipped"`
	SkipReason string               `json:"skip_reason,omitempty"`
	Locked     bool                 `json:"locked"`
	Products   ResourceResult       `json:"products"`
	Customers  ResourceResult       `json:"customers"`
	Orders     ResourceResult       `json:"orders"`
	Error      string               `json:"error,omitempty"`
	Duration   time.Duration        `json:"duration"`
}

// Succeeded reports whether the attempt completed without a fatal error
func (r *TenantSyncResult) Succeeded() bool {
	return r.Error == "" && !r.Locked
}

// AllTenantsResult is the outcome of a full pass over every active tenant
type AllTenantsResult struct {
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Results    []TenantSyncResult `json:"results"`
}
