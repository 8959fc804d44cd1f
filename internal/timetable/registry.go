package timetable

import (
	"strings"
	"sync"
	"time"
)

type registryEntry struct {
	feed     *Feed
	lastUsed time.Time
}

// Registry keeps one Feed per session id.
type Registry struct {
	mu      sync.Mutex
	feeds   map[string]*registryEntry
	factory func() *Feed
	clock   func() time.Time
}

// NewRegistry builds a registry creating feeds with factory.
func NewRegistry(factory func() *Feed) *Registry {
	return &Registry{feeds: make(map[string]*registryEntry), factory: factory, clock: time.Now}
}

// Get returns the session's feed, creating it on first use.
func (r *Registry) Get(sessionID string) *Feed {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.feeds[sessionID]
	if !ok {
		entry = &registryEntry{feed: r.factory()}
		r.feeds[sessionID] = entry
	}
	entry.lastUsed = r.clock()
	return entry.feed
}

// Drop forgets a session's feed and every feed keyed "<sessionID>:...".
func (r *Registry) Drop(sessionID string) {
	prefix := sessionID + ":"
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.feeds {
		if key == sessionID || strings.HasPrefix(key, prefix) {
			delete(r.feeds, key)
		}
	}
}

// Sweep removes feeds idle for longer than ttl and returns how many were
// removed.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.clock().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, entry := range r.feeds {
		if entry.lastUsed.Before(cutoff) {
			delete(r.feeds, id)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds)
}
