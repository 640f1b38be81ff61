// Package suppress filters the echo of a surface's own writes.
//
// A surface marks a key right before it writes it; when the resulting change
// notification arrives (before or after the local optimistic patch) the
// surface asks IsSuppressed and drops it. Entries are purely time-based.
package suppress

import (
	"sync"
	"time"
)

// DefaultTTL is the echo window for settings keys.
const DefaultTTL = 600 * time.Millisecond

// Option configures a Suppressor.
type Option func(*Suppressor)

// WithTTL sets the window used by Mark. Non-positive values are ignored.
func WithTTL(d time.Duration) Option {
	return func(s *Suppressor) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Suppressor) { s.now = now }
}

type entry struct {
	expires time.Time
	timer   *time.Timer
}

// Suppressor remembers recently written keys. Safe for concurrent use.
type Suppressor struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// New returns a Suppressor with DefaultTTL unless overridden.
func New(opts ...Option) *Suppressor {
	s := &Suppressor{
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL returns the default window.
func (s *Suppressor) TTL() time.Duration { return s.ttl }

// Mark suppresses key for the default TTL.
func (s *Suppressor) Mark(key string) { s.MarkFor(key, s.ttl) }

// MarkFor suppresses key from now until now+ttl. A later mark of the same
// key replaces the earlier expiry.
func (s *Suppressor) MarkFor(key string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		old.timer.Stop()
	}
	e := &entry{expires: s.now().Add(ttl)}
	e.timer = time.AfterFunc(ttl, func() { s.collect(key, e) })
	s.entries[key] = e
}

// IsSuppressed reports whether key is inside its window. Expired entries
// are discarded.
func (s *Suppressor) IsSuppressed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if s.now().Before(e.expires) {
		return true
	}
	e.timer.Stop()
	delete(s.entries, key)
	return false
}

// Len returns the number of live entries.
func (s *Suppressor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Suppressor) collect(key string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Only drop the entry this timer belongs to; a re-mark installed a new one.
	if cur, ok := s.entries[key]; ok && cur == e {
		delete(s.entries, key)
	}
}
