package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/eventlog"
)

// RawEventModel is the persistence model for the append-only event log
type RawEventModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_raw_events_tenant_topic_created,priority:1"`
	Topic    string    `gorm:"size:100;not null;index:idx_raw_events_tenant_topic_created,priority:2"`
	Payload  []byte    `gorm:"type:jsonb;not null"`
}

// TableName specifies the table name for RawEventModel
func (RawEventModel) TableName() string {
	return "raw_events"
}

// ToDomain converts the persistence model to a domain raw event
func (m *RawEventModel) ToDomain() *eventlog.RawEvent {
	return &eventlog.RawEvent{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Topic:      m.Topic,
		Payload:    json.RawMessage(m.Payload),
	}
}

// FromDomain populates the persistence model from a domain raw event
func (m *RawEventModel) FromDomain(e *eventlog.RawEvent) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TenantID = e.TenantID
	m.Topic = e.Topic
	m.Payload = []byte(e.Payload)
}

// SyncLogModel is the persistence model for sync audit rows
type SyncLogModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_sync_logs_tenant_created"`
	JobType  string    `gorm:"size:20;not null"`
	Outcome  string    `gorm:"size:20;not null"`
	Message  string    `gorm:"type:text"`
}

// TableName specifies the table name for SyncLogModel
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain sync log
func (m *SyncLogModel) ToDomain() *eventlog.SyncLog {
	return &eventlog.SyncLog{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		JobType:    eventlog.SyncJobType(m.JobType),
		Outcome:    eventlog.SyncOutcome(m.Outcome),
		Message:    m.Message,
	}
}

// FromDomain populates the persistence model from a domain sync log
func (m *SyncLogModel) FromDomain(l *eventlog.SyncLog) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.TenantID = l.TenantID
	m.JobType = string(l.JobType)
	m.Outcome = string(l.Outcome)
	m.Message = l.Message
}
