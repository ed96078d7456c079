package abandonment

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/storesync/backend/internal/domain/eventlog"
)

// Session is one checkout/cart activity stream correlated by a shared key
// across multiple raw events.
type Session struct {
	Key       string
	Email     string
	FirstSeen time.Time
	LastSeen  time.Time
}

// InactiveFor returns how long the session has been without activity
func (s *Session) InactiveFor(now time.Time) time.Duration {
	return now.Sub(s.LastSeen)
}

// IsStale reports whether the session has been inactive beyond the threshold
func (s *Session) IsStale(now time.Time, threshold time.Duration) bool {
	return s.InactiveFor(now) >= threshold
}

// checkoutPayload is the typed core of a checkout/cart event payload. Events
// carry many more fields; only the ones the sweep reads are modeled.
type checkoutPayload struct {
	Token     string          `json:"token"`
	CartToken string          `json:"cart_token"`
	ID        json.RawMessage `json:"id"`
	Email     string          `json:"email"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// sessionKey extracts the correlation key from a payload: the checkout token,
// the cart token, or the external id. Empty means the event is discarded.
func (p *checkoutPayload) sessionKey() string {
	if p.Token != "" {
		return p.Token
	}
	if p.CartToken != "" {
		return p.CartToken
	}
	return rawID(p.ID)
}

func (p *checkoutPayload) email() string {
	if p.Email != "" {
		return strings.ToLower(strings.TrimSpace(p.Email))
	}
	if p.Customer.Email != "" {
		return strings.ToLower(strings.TrimSpace(p.Customer.Email))
	}
	return ""
}

// rawID renders a JSON id that may arrive as number or string
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == 0 {
			return ""
		}
		return strconv.FormatInt(n, 10)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// Correlate groups checkout/cart raw events into sessions. Events must be
// ordered by creation time ascending. Events lacking both a token and an
// external id are discarded. For each session the first non-empty email wins
// and is never overwritten by a later empty value.
func Correlate(events []eventlog.RawEvent) []Session {
	byKey := make(map[string]*Session)
	for i := range events {
		var payload checkoutPayload
		if err := json.Unmarshal(events[i].Payload, &payload); err != nil {
			continue
		}
		key := payload.sessionKey()
		if key == "" {
			continue
		}

		s, ok := byKey[key]
		if !ok {
			s = &Session{
				Key:       key,
				FirstSeen: events[i].CreatedAt,
				LastSeen:  events[i].CreatedAt,
			}
			byKey[key] = s
		}
		if events[i].CreatedAt.After(s.LastSeen) {
			s.LastSeen = events[i].CreatedAt
		}
		if events[i].CreatedAt.Before(s.FirstSeen) {
			s.FirstSeen = events[i].CreatedAt
		}
		if s.Email == "" {
			s.Email = payload.email()
		}
	}

	sessions := make([]Session, 0, len(byKey))
	for _, s := range byKey {
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].FirstSeen.Before(sessions[j].FirstSeen)
	})
	return sessions
}

// MarkedKeys extracts the set of session keys already carrying an abandonment
// marker, from previously emitted `checkouts/abandoned` events.
func MarkedKeys(markers []eventlog.RawEvent) map[string]struct{} {
	keys := make(map[string]struct{}, len(markers))
	for i := range markers {
		var payload struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(markers[i].Payload, &payload); err != nil {
			continue
		}
		if payload.Token != "" {
			keys[payload.Token] = struct{}{}
		}
	}
	return keys
}
