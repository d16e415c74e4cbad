package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, cfg Config) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, cfg), mr
}

func TestRedisStore_FixedWindow(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, Config{Window: 60 * time.Second, MaxAttempts: 5})

	for i := 0; i < 5; i++ {
		dec, err := store.Admit(ctx, "1.2.3.4", time.Now())
		if err != nil {
			t.Fatalf("Admit returned error: %v", err)
		}
		if !dec.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	dec, err := store.Admit(ctx, "1.2.3.4", time.Now())
	if err != nil {
		t.Fatalf("Admit returned error: %v", err)
	}
	if dec.Allowed {
		t.Fatal("6th attempt should be denied")
	}
	if dec.RetryAfter <= 0 || dec.RetryAfter > 60 {
		t.Errorf("RetryAfter = %d, want in (0,60]", dec.RetryAfter)
	}

	// Expiring the key resets the window
	mr.FastForward(61 * time.Second)
	dec, err = store.Admit(ctx, "1.2.3.4", time.Now())
	if err != nil {
		t.Fatalf("Admit returned error: %v", err)
	}
	if !dec.Allowed {
		t.Fatal("attempt after TTL expiry should be allowed")
	}
}

func TestRedisStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t, Config{Window: 60 * time.Second, MaxAttempts: 2})

	store.Admit(ctx, "1.2.3.4", time.Now())
	store.Admit(ctx, "1.2.3.4", time.Now())
	if dec, _ := store.Admit(ctx, "1.2.3.4", time.Now()); dec.Allowed {
		t.Fatal("third attempt for exhausted key should be denied")
	}

	dec, err := store.Admit(ctx, "5.6.7.8", time.Now())
	if err != nil {
		t.Fatalf("Admit returned error: %v", err)
	}
	if !dec.Allowed {
		t.Error("exhausting one key must not affect another")
	}
}

func TestRedisStore_UnavailableBackendSurfacesError(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, Config{Window: 60 * time.Second, MaxAttempts: 5})

	mr.Close()

	if _, err := store.Admit(ctx, "1.2.3.4", time.Now()); err == nil {
		t.Error("expected error when the backend is unreachable")
	}
}
