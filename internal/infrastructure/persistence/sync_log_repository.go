package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const defaultSyncLogLimit = 20

// GormSyncLogRepository implements SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Append writes one sync audit row
func (r *GormSyncLogRepository) Append(ctx context.Context, log *eventlog.SyncLog) error {
	var model models.SyncLogModel
	model.FromDomain(log)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindRecentForTenant returns the most recent sync attempts for a tenant
func (r *GormSyncLogRepository) FindRecentForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]eventlog.SyncLog, error) {
	if limit <= 0 {
		limit = defaultSyncLogLimit
	}
	var logModels []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	logs := make([]eventlog.SyncLog, len(logModels))
	for i := range logModels {
		logs[i] = *logModels[i].ToDomain()
	}
	return logs, nil
}

var _ eventlog.SyncLogRepository = (*GormSyncLogRepository)(nil)
