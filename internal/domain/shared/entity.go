package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the local identity and bookkeeping timestamps shared by
// every stored record: tenants, replica rows, and log entries alike. The ID
// is minted locally and never derives from an upstream external id.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity mints a fresh identity with both timestamps set to now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records that the entity was mutated
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
