package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const defaultRecentEventLimit = 50

// GormRawEventRepository implements RawEventRepository using GORM
type GormRawEventRepository struct {
	db *gorm.DB
}

// NewGormRawEventRepository creates a new GormRawEventRepository
func NewGormRawEventRepository(db *gorm.DB) *GormRawEventRepository {
	return &GormRawEventRepository{db: db}
}

// Append writes one event row. The log is append-only; rows are never
// updated afterwards.
func (r *GormRawEventRepository) Append(ctx context.Context, event *eventlog.RawEvent) error {
	var model models.RawEventModel
	model.FromDomain(event)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindRecent returns events for a tenant ordered by creation time descending,
// optionally filtered to one topic
func (r *GormRawEventRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, topic string, limit int) ([]eventlog.RawEvent, error) {
	if limit <= 0 {
		limit = defaultRecentEventLimit
	}
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit)
	if topic != "" {
		query = query.Where("topic = ?", topic)
	}

	var eventModels []models.RawEventModel
	if err := query.Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return toDomainRawEvents(eventModels), nil
}

// FindByTopicsSince returns events within [since, now] for the given topics,
// ordered by creation time ascending
func (r *GormRawEventRepository) FindByTopicsSince(ctx context.Context, tenantID uuid.UUID, topics []string, since time.Time) ([]eventlog.RawEvent, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	var eventModels []models.RawEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND topic IN ? AND created_at >= ?", tenantID, topics, since).
		Order("created_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return toDomainRawEvents(eventModels), nil
}

// CountForTenant returns the number of logged events for a tenant
func (r *GormRawEventRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RawEventModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error
	return count, err
}

func toDomainRawEvents(eventModels []models.RawEventModel) []eventlog.RawEvent {
	events := make([]eventlog.RawEvent, len(eventModels))
	for i := range eventModels {
		events[i] = *eventModels[i].ToDomain()
	}
	return events
}

var _ eventlog.RawEventRepository = (*GormRawEventRepository)(nil)
