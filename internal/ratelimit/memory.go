package ratelimit

import (
	"context"
	"sync"
	"time"
)

// record is one client key's counter. Each record carries its own lock so
// bursts from one client never serialize admission for every other key.
// evicted marks a record Sweep has removed from the table; a caller holding
// a stale pointer must not mutate it.
type record struct {
	mu        sync.Mutex
	count     int
	resetTime time.Time
	evicted   bool
}

// MemoryStore is an in-process fixed-window store. Records are created
// lazily on first sight of a key; Sweep prunes records whose window has
// passed so the table stays bounded under client-key churn.
type MemoryStore struct {
	cfg Config

	mu      sync.RWMutex
	records map[string]*record
}

// NewMemoryStore creates an in-memory store. Non-positive config values
// fall back to the defaults.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		cfg:     cfg.withDefaults(),
		records: make(map[string]*record),
	}
}

// Admit applies the fixed-window algorithm:
//   - no record: count=1, fresh window, allow
//   - window elapsed: count=1, fresh window, allow
//   - within window below the ceiling: increment, allow
//   - within window at the ceiling: deny with seconds until reset
func (s *MemoryStore) Admit(_ context.Context, key string, now time.Time) (Decision, error) {
	for {
		rec := s.getOrCreate(key)
		rec.mu.Lock()

		// Sweep got to this record between the lookup and the lock; the
		// pointer is no longer in the table, so start over
		if rec.evicted {
			rec.mu.Unlock()
			continue
		}

		var dec Decision
		switch {
		case rec.count == 0 || now.After(rec.resetTime):
			rec.count = 1
			rec.resetTime = now.Add(s.cfg.Window)
			dec = Decision{Allowed: true}
		case rec.count < s.cfg.MaxAttempts:
			rec.count++
			dec = Decision{Allowed: true}
		default:
			dec = Decision{RetryAfter: retryAfterSeconds(rec.resetTime.Sub(now))}
		}

		rec.mu.Unlock()
		return dec, nil
	}
}

func (s *MemoryStore) getOrCreate(key string) *record {
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()
	if ok {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok = s.records[key]; ok {
		return rec
	}
	rec = &record{}
	s.records[key] = rec
	return rec
}

// Sweep removes records whose window has elapsed and returns how many were
// dropped. The background cleanup manager calls this periodically.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		rec.mu.Lock()
		if rec.count > 0 && now.After(rec.resetTime) {
			rec.evicted = true
			delete(s.records, key)
			removed++
		}
		rec.mu.Unlock()
	}
	return removed
}

// Len reports the number of tracked client keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
