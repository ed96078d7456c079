package eventlog

import (
	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/shared"
)

// SyncJobType distinguishes how a sync attempt was triggered
type SyncJobType string

const (
	SyncJobManual SyncJobType = "manual"
	SyncJobCron   SyncJobType = "cron"
)

// SyncOutcome is the terminal outcome of one sync attempt
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeError   SyncOutcome = "error"
)

// SyncLog is one append-only audit record of a sync attempt for a tenant.
// Never mutated after creation.
type SyncLog struct {
	shared.BaseEntity
	TenantID uuid.UUID
	JobType  SyncJobType
	Outcome  SyncOutcome
	Message  string
}

// NewSyncLog creates a sync log row
func NewSyncLog(tenantID uuid.UUID, jobType SyncJobType, outcome SyncOutcome, message string) (*SyncLog, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	return &SyncLog{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		JobType:    jobType,
		Outcome:    outcome,
		Message:    message,
	}, nil
}
