// Package session tracks per-caller conversation state between requests.
// State is memory-resident and disposable: nothing survives a restart.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/shodh-ai/cortex/pkg/logger"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = time.Hour

// Session is the per-caller state carried across exchanges. Values handed
// out by the table are copies; mutation goes through Table.Update.
type Session struct {
	LastResponse     string
	LastMemoryIDs    []string
	LastToolUses     []string
	InteractionCount int
	LastUserMessage  string
	CreatedAt        time.Time
	LastAccessed     time.Time
}

func (s *Session) clone() Session {
	copied := *s
	copied.LastMemoryIDs = append([]string(nil), s.LastMemoryIDs...)
	copied.LastToolUses = append([]string(nil), s.LastToolUses...)
	return copied
}

// Update is the field set applied atomically after a completed exchange.
type Update struct {
	LastResponse    string
	LastMemoryIDs   []string
	LastToolUses    []string
	LastUserMessage string
}

// Table is a concurrent session map keyed by caller id.
type Table struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// New returns a table with the default idle TTL.
func New() *Table {
	return NewWithTTL(DefaultTTL)
}

// NewWithTTL returns a table with a custom idle TTL.
func NewWithTTL(ttl time.Duration) *Table {
	return &Table{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Snapshot returns a copy of the caller's session as it stood before this
// request, creating it on first sight. The entry's last-access time is
// touched so the sweeper keeps active sessions alive.
func (t *Table) Snapshot(userID string) Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.sessions[userID]
	if !ok {
		now := t.now()
		entry = &Session{CreatedAt: now, LastAccessed: now}
		t.sessions[userID] = entry
	}
	snapshot := entry.clone()
	entry.LastAccessed = t.now()
	return snapshot
}

// Update applies the post-exchange field set in one critical section so
// concurrent updates for the same caller never interleave field-by-field.
// The interaction counter increments and the access time is touched.
func (t *Table) Update(userID string, update Update) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.sessions[userID]
	if !ok {
		// Session may have been swept while the exchange was in flight.
		entry = &Session{CreatedAt: t.now()}
		t.sessions[userID] = entry
	}
	entry.LastResponse = update.LastResponse
	entry.LastMemoryIDs = append([]string(nil), update.LastMemoryIDs...)
	entry.LastToolUses = append([]string(nil), update.LastToolUses...)
	entry.LastUserMessage = update.LastUserMessage
	entry.InteractionCount++
	entry.LastAccessed = t.now()
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Sweep removes sessions idle past the TTL. Expiry is verified under the
// lock at sweep time, so an entry touched after enqueueing survives.
func (t *Table) Sweep() int {
	cutoff := t.now().Add(-t.ttl)
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for id, entry := range t.sessions {
		if entry.LastAccessed.Before(cutoff) {
			delete(t.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps periodically at a quarter of the TTL until the context ends.
func (t *Table) Run(ctx context.Context) {
	log := logger.FromContext(ctx)
	ticker := time.NewTicker(t.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := t.Sweep(); evicted > 0 {
				log.Info("session cleanup: evicted expired sessions", "count", evicted)
			}
		}
	}
}
