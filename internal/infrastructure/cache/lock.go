package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const lockKeyPrefix = "lock:"

// LockManager provides best-effort mutual exclusion for background jobs.
// Locks are advisory: they reduce duplicate work but never guard
// correctness, since every job is idempotent. When no store is configured
// the manager degrades to always granting, preferring duplicate work over
// refusing it.
type LockManager struct {
	store  Store
	logger *zap.Logger
}

// NewLockManager creates a lock manager. A nil store is valid and disables
// mutual exclusion entirely.
func NewLockManager(store Store, logger *zap.Logger) *LockManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LockManager{store: store, logger: logger}
}

// SyncLockKey names the lock guarding full syncs for a tenant
func SyncLockKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("sync:%s", tenantID)
}

// SweepLockKey names the lock guarding the abandonment sweep for a tenant
func SweepLockKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("sweep:%s", tenantID)
}

// SyncAllLockKey names the lock guarding the all-tenant sync pass
func SyncAllLockKey() string {
	return "sync:all"
}

// SweepAllLockKey names the lock guarding the all-tenant abandonment sweep
func SweepAllLockKey() string {
	return "sweep:all"
}

// Acquire attempts to take the named lock for ttl. Returns true when the
// lock was granted. Store failures grant the lock rather than blocking the
// caller.
func (m *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) bool {
	if m.store == nil {
		return true
	}

	granted, err := m.store.SetNX(ctx, lockKeyPrefix+key, "1", ttl)
	if err != nil {
		m.logger.Warn("lock store unavailable, granting lock",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	return granted
}

// Release frees the named lock. Best-effort: a failed release just leaves
// the lock to expire via TTL.
func (m *LockManager) Release(ctx context.Context, key string) {
	if m.store == nil {
		return
	}
	if err := m.store.Delete(ctx, lockKeyPrefix+key); err != nil {
		m.logger.Warn("failed to release lock, waiting for TTL expiry",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// Enabled reports whether mutual exclusion is actually in effect
func (m *LockManager) Enabled() bool {
	return m.store != nil
}
