package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_FixedWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{Window: 60 * time.Second, MaxAttempts: 5})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		dec, err := store.Admit(ctx, "1.2.3.4", base.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("Admit returned error: %v", err)
		}
		if !dec.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	// 6th attempt within the window is denied with a positive retry-after
	dec, err := store.Admit(ctx, "1.2.3.4", base.Add(10*time.Second))
	if err != nil {
		t.Fatalf("Admit returned error: %v", err)
	}
	if dec.Allowed {
		t.Fatal("6th attempt should be denied")
	}
	if dec.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %d, want > 0", dec.RetryAfter)
	}
	// window started at base, so 50s remain at base+10s
	if dec.RetryAfter != 50 {
		t.Errorf("RetryAfter = %d, want 50", dec.RetryAfter)
	}

	// After the window passes the same key gets a fresh window
	dec, err = store.Admit(ctx, "1.2.3.4", base.Add(61*time.Second))
	if err != nil {
		t.Fatalf("Admit returned error: %v", err)
	}
	if !dec.Allowed {
		t.Fatal("attempt after window reset should be allowed")
	}
}

func TestMemoryStore_RetryAfterRoundsUp(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{Window: 60 * time.Second, MaxAttempts: 1})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if dec, _ := store.Admit(ctx, "k", base); !dec.Allowed {
		t.Fatal("first attempt should be allowed")
	}

	// 59.2s remain: must round up to 60, never down
	dec, _ := store.Admit(ctx, "k", base.Add(800*time.Millisecond))
	if dec.Allowed {
		t.Fatal("second attempt should be denied")
	}
	if dec.RetryAfter != 60 {
		t.Errorf("RetryAfter = %d, want 60", dec.RetryAfter)
	}
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{Window: 60 * time.Second, MaxAttempts: 5})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		store.Admit(ctx, "1.2.3.4", now)
	}

	dec, err := store.Admit(ctx, "5.6.7.8", now)
	if err != nil {
		t.Fatalf("Admit returned error: %v", err)
	}
	if !dec.Allowed {
		t.Error("exhausting one key must not affect another")
	}
}

func TestMemoryStore_DefaultsApplied(t *testing.T) {
	store := NewMemoryStore(Config{Window: -1, MaxAttempts: 0})
	if store.cfg.Window != DefaultWindow {
		t.Errorf("window = %v, want %v", store.cfg.Window, DefaultWindow)
	}
	if store.cfg.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("max attempts = %d, want %d", store.cfg.MaxAttempts, DefaultMaxAttempts)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{Window: 60 * time.Second, MaxAttempts: 5})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store.Admit(ctx, "expired-1", base)
	store.Admit(ctx, "expired-2", base)
	store.Admit(ctx, "live", base.Add(50*time.Second))

	removed := store.Sweep(base.Add(70 * time.Second))
	if removed != 2 {
		t.Errorf("Sweep removed %d records, want 2", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", store.Len())
	}

	// The surviving key still has its counter
	for i := 0; i < 4; i++ {
		store.Admit(ctx, "live", base.Add(55*time.Second))
	}
	dec, _ := store.Admit(ctx, "live", base.Add(56*time.Second))
	if dec.Allowed {
		t.Error("live key should have kept its count across the sweep")
	}
}

func TestMemoryStore_StaleRecordAfterSweepDoesNotGrantExtraAttempt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{Window: 60 * time.Second, MaxAttempts: 2})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store.Admit(ctx, "k", base)

	// Simulate an Admit that looked up the record just before Sweep ran:
	// the handle is taken first, then the sweep evicts the key
	stale := store.getOrCreate("k")
	store.Sweep(base.Add(61 * time.Second))

	stale.mu.Lock()
	evicted := stale.evicted
	stale.mu.Unlock()
	if !evicted {
		t.Fatal("swept record should be marked evicted")
	}

	// Fresh-window admissions after the sweep still share one counter;
	// the ceiling must hold without a surplus attempt
	later := base.Add(62 * time.Second)
	for i := 0; i < 2; i++ {
		dec, err := store.Admit(ctx, "k", later)
		if err != nil {
			t.Fatalf("Admit returned error: %v", err)
		}
		if !dec.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	dec, _ := store.Admit(ctx, "k", later)
	if dec.Allowed {
		t.Error("3rd attempt in the fresh window should be denied")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStore_ConcurrentBurst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{Window: time.Minute, MaxAttempts: 5})
	now := time.Now()

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := store.Admit(ctx, "burst", now)
			if err != nil {
				t.Errorf("Admit returned error: %v", err)
				return
			}
			allowed <- dec.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 5 {
		t.Errorf("%d of 100 concurrent attempts allowed, want exactly 5", count)
	}
}

func TestLimiter_InjectedClock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Config{Window: 60 * time.Second, MaxAttempts: 1})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := New(store, WithClock(func() time.Time { return now }))

	if dec, _ := limiter.Admit(ctx, "k"); !dec.Allowed {
		t.Fatal("first attempt should be allowed")
	}
	if dec, _ := limiter.Admit(ctx, "k"); dec.Allowed {
		t.Fatal("second attempt should be denied")
	}

	now = now.Add(61 * time.Second)
	if dec, _ := limiter.Admit(ctx, "k"); !dec.Allowed {
		t.Fatal("attempt after advancing the clock should be allowed")
	}
}
