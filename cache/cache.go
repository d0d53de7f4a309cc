// Package cache provides the in-memory TTL cache backing the kit's
// read-through data accessors.
//
// The cache package follows go-kit conventions:
// - Interface-driven design for testability
// - Uses logger.Logger interface for unified logging
// - Configuration with validation and defaults
// - Structured error handling
//
// The store holds key -> (value, insertion time, ttl) entries. An entry is
// valid while now - insertedAt <= ttl; expired entries behave as misses and
// are evicted by the access that observes them. There is no background
// sweep: every access self-corrects, so a timer adds nothing.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/placemates/go-kit/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a key from the backing source.
// The context should be respected for cancellation and timeout.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry struct {
	value      any
	insertedAt time.Time
	ttl        time.Duration
}

// Store is a TTL-based key/value store shared by every read-through
// accessor and invalidation trigger in the process.
//
// All operations are safe for concurrent use. Values are stored by
// reference; callers must treat values read from the store as read-only.
type Store struct {
	logger     logger.Logger
	name       string
	defaultTTL time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	// flight collapses concurrent GetOrSet fetches for the same key so a
	// burst of identical reads costs one backend call.
	flight singleflight.Group

	// now is swapped out by tests to drive TTL expiry deterministically
	now func() time.Time
}

// New creates a new Store.
// A nil configuration means defaults; zero-valued fields are filled in from
// DefaultConfig before validation.
func New(log logger.Logger, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		defaults := DefaultConfig()
		if cfg.Name == "" {
			cfg.Name = defaults.Name
		}
		if cfg.DefaultTTL == 0 {
			cfg.DefaultTTL = defaults.DefaultTTL
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Store{
		logger:     log,
		name:       cfg.Name,
		defaultTTL: cfg.DefaultTTL,
		entries:    make(map[string]entry),
		now:        time.Now,
	}, nil
}

// DefaultTTL returns the TTL applied when Set or GetOrSet is called with a
// zero duration.
func (s *Store) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Get returns the stored value for key if present and not expired.
// An expired entry is deleted on this access and reported as a miss.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	ent, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if s.expired(ent) {
		// Lazy eviction. Re-check under the write lock since another
		// goroutine may have replaced the entry in the meantime.
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && s.expired(cur) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}

	return ent.value, true
}

// Set stores value under key with the default TTL, overwriting any
// previous entry.
func (s *Store) Set(key string, value any) {
	s.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key, stamping the current time.
// A zero ttl means the store default. Overwrites are always legal,
// including changing the TTL of a previously stored key.
func (s *Store) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	s.entries[key] = entry{
		value:      value,
		insertedAt: s.now(),
		ttl:        ttl,
	}
	s.mu.Unlock()
}

// Delete removes the entry for key if present. Deleting an absent key is
// a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Invalidate removes the entry for key. It is an alias of Delete, named for
// the mutation-trigger call sites.
func (s *Store) Invalidate(key string) {
	s.Delete(key)
}

// Clear removes all entries unconditionally. Used for full cache resets,
// e.g. on sign-out.
func (s *Store) Clear() {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = make(map[string]entry)
	s.mu.Unlock()

	s.logger.Debug("cache cleared",
		zap.String("cache", s.name),
		zap.Int("entries", n),
	)
}

// Len reports the number of stored entries, expired ones included until an
// access evicts them.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// InvalidatePattern deletes every stored key matched by p and returns the
// number of deleted entries.
func (s *Store) InvalidatePattern(p Pattern) int {
	s.mu.Lock()
	n := 0
	for key := range s.entries {
		if p.Matches(key) {
			delete(s.entries, key)
			n++
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.logger.Debug("cache pattern invalidation",
			zap.String("cache", s.name),
			zap.String("pattern", p.String()),
			zap.Int("deleted", n),
		)
	}
	return n
}

// InvalidateMatching interprets raw with ParsePattern and deletes every
// matching key. It returns the number of deleted entries, or an error when
// raw sniffs as a regular expression but fails to compile.
func (s *Store) InvalidateMatching(raw string) (int, error) {
	p, err := ParsePattern(raw)
	if err != nil {
		return 0, err
	}
	return s.InvalidatePattern(p), nil
}

// GetOrSet returns the cached value for key, or populates it via fetch.
//
// A hit returns the stored value without invoking fetch. On a miss, fetch
// runs once per key across concurrent callers (single-flight); its result
// is stored with ttl (zero means the store default) and returned. A fetch
// failure propagates unmodified, is never cached, and never evicts an
// existing valid entry for key.
func GetOrSet[T any](ctx context.Context, s *Store, key string, ttl time.Duration, fetch FetchFunc[T]) (T, error) {
	if v, ok := s.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
		// A caller stored a different type under this key. Drop the entry
		// and let the fetch replace it.
		s.logger.Warn("cached value has unexpected type, refetching",
			zap.String("cache", s.name),
			zap.String("key", key),
		)
		s.Delete(key)
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		// A concurrent flight may have populated the key while this caller
		// was waiting on the flight group. Only a value of the requested
		// type counts as a hit here; a mismatched one is dropped and
		// refetched like any other miss.
		if v, ok := s.Get(key); ok {
			if _, ok := v.(T); ok {
				return v, nil
			}
			s.Delete(key)
		}
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.SetWithTTL(key, val, ttl)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, ErrTypeMismatch(key)
	}
	return typed, nil
}

func (s *Store) expired(ent entry) bool {
	return s.now().Sub(ent.insertedAt) > ent.ttl
}
