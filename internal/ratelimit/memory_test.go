package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemory_AllowUntilLimit(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemory(MemoryConfig{Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(context.Background(), "submit:1", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if d.Remaining != 3-(i+1) {
			t.Fatalf("expected remaining %d, got %d", 3-(i+1), d.Remaining)
		}
	}

	d, err := limiter.Allow(context.Background(), "submit:1", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth request in window must be denied")
	}
}

func TestMemory_WindowResets(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemory(MemoryConfig{Now: func() time.Time { return now }})

	for i := 0; i < 2; i++ {
		if d, _ := limiter.Allow(context.Background(), "k", 2, time.Minute); !d.Allowed {
			t.Fatal("should be allowed")
		}
	}
	if d, _ := limiter.Allow(context.Background(), "k", 2, time.Minute); d.Allowed {
		t.Fatal("should be denied")
	}

	now = now.Add(61 * time.Second)
	if d, _ := limiter.Allow(context.Background(), "k", 2, time.Minute); !d.Allowed {
		t.Fatal("new window should allow again")
	}
}

func TestMemory_KeysIndependent(t *testing.T) {
	limiter := NewMemory(MemoryConfig{})
	if d, _ := limiter.Allow(context.Background(), "a", 1, time.Minute); !d.Allowed {
		t.Fatal("first key should be allowed")
	}
	if d, _ := limiter.Allow(context.Background(), "b", 1, time.Minute); !d.Allowed {
		t.Fatal("second key must have its own window")
	}
}

func TestMemory_ZeroLimitDisables(t *testing.T) {
	limiter := NewMemory(MemoryConfig{})
	for i := 0; i < 5; i++ {
		if d, _ := limiter.Allow(context.Background(), "off", 0, time.Minute); !d.Allowed {
			t.Fatal("zero limit disables throttling")
		}
	}
}
