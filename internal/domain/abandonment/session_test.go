package abandonment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/eventlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activityEvent(t *testing.T, tenantID uuid.UUID, createdAt time.Time, payload string) eventlog.RawEvent {
	t.Helper()
	event, err := eventlog.NewRawEvent(tenantID, eventlog.TopicCheckoutsUpdate, json.RawMessage(payload))
	require.NoError(t, err)
	event.CreatedAt = createdAt
	return *event
}

func TestCorrelate(t *testing.T) {
	tenantID := uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("groups events by token and tracks first and last seen", func(t *testing.T) {
		events := []eventlog.RawEvent{
			activityEvent(t, tenantID, base, `{"token":"sess-a"}`),
			activityEvent(t, tenantID, base.Add(5*time.Minute), `{"token":"sess-b","email":"b@example.com"}`),
			activityEvent(t, tenantID, base.Add(10*time.Minute), `{"token":"sess-a","email":"a@example.com"}`),
		}

		sessions := Correlate(events)

		require.Len(t, sessions, 2)
		assert.Equal(t, "sess-a", sessions[0].Key)
		assert.Equal(t, base, sessions[0].FirstSeen)
		assert.Equal(t, base.Add(10*time.Minute), sessions[0].LastSeen)
		assert.Equal(t, "a@example.com", sessions[0].Email)
		assert.Equal(t, "sess-b", sessions[1].Key)
	})

	t.Run("first non-empty email wins and is never cleared", func(t *testing.T) {
		events := []eventlog.RawEvent{
			activityEvent(t, tenantID, base, `{"token":"sess-a","email":"first@example.com"}`),
			activityEvent(t, tenantID, base.Add(time.Minute), `{"token":"sess-a"}`),
			activityEvent(t, tenantID, base.Add(2*time.Minute), `{"token":"sess-a","email":"second@example.com"}`),
		}

		sessions := Correlate(events)

		require.Len(t, sessions, 1)
		assert.Equal(t, "first@example.com", sessions[0].Email)
	})

	t.Run("falls back to customer email and numeric id", func(t *testing.T) {
		events := []eventlog.RawEvent{
			activityEvent(t, tenantID, base, `{"id":9001,"customer":{"email":"Nested@Example.com "}}`),
		}

		sessions := Correlate(events)

		require.Len(t, sessions, 1)
		assert.Equal(t, "9001", sessions[0].Key)
		assert.Equal(t, "nested@example.com", sessions[0].Email)
	})

	t.Run("discards events lacking token and id", func(t *testing.T) {
		events := []eventlog.RawEvent{
			activityEvent(t, tenantID, base, `{"email":"nobody@example.com"}`),
			activityEvent(t, tenantID, base, `not json`),
		}

		assert.Empty(t, Correlate(events))
	})
}

func TestSession_IsStale(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	session := Session{Key: "sess-a", LastSeen: now.Add(-90 * time.Minute)}

	assert.True(t, session.IsStale(now, 60*time.Minute))
	assert.False(t, session.IsStale(now, 2*time.Hour))
	assert.Equal(t, 90*time.Minute, session.InactiveFor(now))
}

func TestMarkedKeys(t *testing.T) {
	tenantID := uuid.New()
	marker, err := eventlog.NewRawEvent(tenantID, eventlog.TopicCheckoutsAbandoned, json.RawMessage(`{"token":"sess-a"}`))
	require.NoError(t, err)
	broken, err := eventlog.NewRawEvent(tenantID, eventlog.TopicCheckoutsAbandoned, json.RawMessage(`{}`))
	require.NoError(t, err)

	keys := MarkedKeys([]eventlog.RawEvent{*marker, *broken})

	assert.Len(t, keys, 1)
	_, ok := keys["sess-a"]
	assert.True(t, ok)
}
