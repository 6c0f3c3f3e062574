package page

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/messaging"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// Sessions keeps the open sessions by tab id and registers each one on the
// hub so it receives messages for its tab.
type Sessions struct {
	hub    *messaging.Hub
	source Source
	store  *vocab.Store
	now    func() time.Time

	mu   sync.RWMutex
	tabs map[string]*Session
	seen map[string]time.Time
}

// NewSessions creates an empty registry.
func NewSessions(hub *messaging.Hub, source Source, store *vocab.Store) *Sessions {
	return &Sessions{
		hub:    hub,
		source: source,
		store:  store,
		now:    time.Now,
		tabs:   make(map[string]*Session),
		seen:   make(map[string]time.Time),
	}
}

// Open loads rawURL in a new tab.
func (r *Sessions) Open(ctx context.Context, rawURL string) (*Session, error) {
	s := NewSession(newTabID(), rawURL, r.source, r.store)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.tabs[s.ID] = s
	r.seen[s.ID] = r.now()
	r.mu.Unlock()
	r.hub.Register(s.ID, s)
	return s, nil
}

// Get returns the session of a tab and marks it as used.
func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.tabs[id]
	if ok {
		r.seen[id] = r.now()
	}
	return s, ok
}

// Close forgets a tab and detaches it from the hub.
func (r *Sessions) Close(id string) {
	r.mu.Lock()
	delete(r.tabs, id)
	delete(r.seen, id)
	r.mu.Unlock()
	r.hub.Unregister(id)
}

// Len returns the number of open tabs.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}

// EvictIdle closes the tabs unused for longer than ttl. A tab with a live
// event listener is in use by an open page and is kept.
func (r *Sessions) EvictIdle(ttl time.Duration) []string {
	cutoff := r.now().Add(-ttl)

	r.mu.RLock()
	var idle []string
	for id, last := range r.seen {
		if last.Before(cutoff) && r.hub.Listeners(id) == 0 {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range idle {
		r.Close(id)
	}
	if len(idle) > 0 {
		logger.L().Debug("evicted idle tabs", zap.Int("count", len(idle)), zap.Int("open", r.Len()))
	}
	return idle
}

// Sweep runs EvictIdle every interval until ctx is done.
func (r *Sessions) Sweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle(ttl)
		}
	}
}

func newTabID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
