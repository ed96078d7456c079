package abandonment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/abandonment"
	"github.com/storesync/backend/internal/domain/commerce"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/storesync/backend/internal/domain/identity"
	"github.com/storesync/backend/internal/domain/shared"
	"github.com/storesync/backend/internal/infrastructure/cache"
	"github.com/storesync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Marker is the payload written to the event log when a session is declared
// abandoned
type Marker struct {
	Token           string    `json:"token"`
	Email           string    `json:"email,omitempty"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	MinutesInactive int       `json:"minutes_inactive"`
}

// SweepResult summarizes one abandonment sweep for a tenant
type SweepResult struct {
	TenantID         uuid.UUID `json:"tenant_id"`
	ShopDomain       string    `json:"shop_domain,omitempty"`
	SessionsExamined int       `json:"sessions_examined"`
	Marked           int       `json:"marked"`
	SkippedActive    int       `json:"skipped_active"`
	SkippedMarked    int       `json:"skipped_marked"`
	SkippedConverted int       `json:"skipped_converted"`
	Markers          []Marker  `json:"markers"`
	Error            string    `json:"error,omitempty"`
}

// AllSweepResult is the outcome of a sweep pass over every active tenant
type AllSweepResult struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []SweepResult `json:"results"`
}

// SweepService detects abandoned checkout sessions from the raw event log
// and writes synthetic `checkouts/abandoned` markers back into it.
//
// The sweep is idempotent: a session already carrying a marker within the
// lookback window is never marked twice.
type SweepService struct {
	tenants   identity.TenantRepository
	events    eventlog.RawEventRepository
	customers commerce.CustomerRepository
	orders    commerce.OrderRepository
	locks     *cache.LockManager
	cfg       config.AbandonmentConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewSweepService creates an abandonment sweep service
func NewSweepService(
	tenants identity.TenantRepository,
	events eventlog.RawEventRepository,
	customers commerce.CustomerRepository,
	orders commerce.OrderRepository,
	locks *cache.LockManager,
	cfg config.AbandonmentConfig,
	logger *zap.Logger,
) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepService{
		tenants:   tenants,
		events:    events,
		customers: customers,
		orders:    orders,
		locks:     locks,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SweepAll runs the abandonment sweep for every active tenant, as triggered
// by the scheduler. A failing tenant never aborts the pass; its result
// carries the error. Returns ErrSyncLocked when another all-tenant sweep is
// already running.
func (s *SweepService) SweepAll(ctx context.Context) (*AllSweepResult, error) {
	passKey := cache.SweepAllLockKey()
	if !s.locks.Acquire(ctx, passKey, s.cfg.LockTTL) {
		return nil, shared.ErrSyncLocked
	}
	defer s.locks.Release(ctx, passKey)

	tenants, err := s.tenants.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	pass := &AllSweepResult{StartedAt: s.now()}
	for i := range tenants {
		result, err := s.Sweep(ctx, tenants[i].ID)
		if result == nil {
			result = &SweepResult{TenantID: tenants[i].ID}
		}
		result.ShopDomain = tenants[i].ShopDomain
		if err != nil {
			result.Error = err.Error()
			s.logger.Warn("tenant sweep failed, continuing pass",
				zap.String("tenant_id", tenants[i].ID.String()),
				zap.String("shop_domain", tenants[i].ShopDomain),
				zap.Error(err),
			)
		}
		pass.Results = append(pass.Results, *result)
	}
	pass.FinishedAt = s.now()
	return pass, nil
}

// Sweep runs one abandonment pass for a tenant. Returns ErrSyncLocked when a
// sweep for the tenant is already in flight.
func (s *SweepService) Sweep(ctx context.Context, tenantID uuid.UUID) (*SweepResult, error) {
	lockKey := cache.SweepLockKey(tenantID)
	if !s.locks.Acquire(ctx, lockKey, s.cfg.LockTTL) {
		return nil, shared.ErrSyncLocked
	}
	defer s.locks.Release(ctx, lockKey)

	now := s.now()
	since := now.Add(-time.Duration(s.cfg.LookbackHours) * time.Hour)
	threshold := time.Duration(s.cfg.ThresholdMinutes) * time.Minute

	activity, err := s.events.FindByTopicsSince(ctx, tenantID, eventlog.CheckoutActivityTopics, since)
	if err != nil {
		return nil, err
	}
	markers, err := s.events.FindByTopicsSince(ctx, tenantID, []string{eventlog.TopicCheckoutsAbandoned}, since)
	if err != nil {
		return nil, err
	}

	sessions := abandonment.Correlate(activity)
	marked := abandonment.MarkedKeys(markers)

	result := &SweepResult{TenantID: tenantID, SessionsExamined: len(sessions)}
	for i := range sessions {
		session := &sessions[i]

		if !session.IsStale(now, threshold) {
			result.SkippedActive++
			continue
		}
		if _, ok := marked[session.Key]; ok {
			result.SkippedMarked++
			continue
		}
		converted, err := s.hasConverted(ctx, tenantID, session)
		if err != nil {
			return result, err
		}
		if converted {
			result.SkippedConverted++
			continue
		}

		marker := Marker{
			Token:           session.Key,
			Email:           session.Email,
			FirstSeen:       session.FirstSeen,
			LastSeen:        session.LastSeen,
			MinutesInactive: int(session.InactiveFor(now) / time.Minute),
		}
		payload, err := json.Marshal(marker)
		if err != nil {
			return result, err
		}
		event, err := eventlog.NewRawEvent(tenantID, eventlog.TopicCheckoutsAbandoned, payload)
		if err != nil {
			return result, err
		}
		if err := s.events.Append(ctx, event); err != nil {
			return result, err
		}
		result.Marked++
		result.Markers = append(result.Markers, marker)
	}

	s.logger.Info("abandonment sweep completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("sessions", result.SessionsExamined),
		zap.Int("marked", result.Marked),
		zap.Int("skipped_converted", result.SkippedConverted),
	)
	return result, nil
}

// hasConverted reports whether the session's customer placed an order after
// the session began. Sessions without an email, or with an email that maps
// to no local customer, cannot be proven converted and stay eligible.
func (s *SweepService) hasConverted(ctx context.Context, tenantID uuid.UUID, session *abandonment.Session) (bool, error) {
	if session.Email == "" {
		return false, nil
	}
	customer, err := s.customers.FindByEmail(ctx, tenantID, session.Email)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.orders.ExistsForCustomerProcessedSince(ctx, tenantID, customer.ID, session.FirstSeen)
}
