package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RawEventRepository defines the persistence interface for the append-only
// raw event log. There is deliberately no update or delete.
type RawEventRepository interface {
	Append(ctx context.Context, event *RawEvent) error
	// FindRecent returns events for a tenant ordered by creation time
	// descending, optionally filtered to one topic. A limit <= 0 applies
	// a default.
	FindRecent(ctx context.Context, tenantID uuid.UUID, topic string, limit int) ([]RawEvent, error)
	// FindByTopicsSince returns events within [since, now] for the given
	// topics, ordered by creation time ascending.
	FindByTopicsSince(ctx context.Context, tenantID uuid.UUID, topics []string, since time.Time) ([]RawEvent, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// SyncLogRepository defines the persistence interface for sync audit rows
type SyncLogRepository interface {
	Append(ctx context.Context, log *SyncLog) error
	FindRecentForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]SyncLog, error)
}
