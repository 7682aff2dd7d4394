package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	result := &authz.CheckResult{Allowed: true, Decision: authz.DecisionAllowGrant}

	// Miss
	_, ok := c.Get(ctx, "u1", "s:1")
	if ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, "u1", "s:1", result)
	got, ok := c.Get(ctx, "u1", "s:1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Allowed {
		t.Fatal("expected allowed")
	}
}

func TestMemoryCacheReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "u1", "s:1", &authz.CheckResult{Allowed: true, EvalTimeNs: 100})

	got, ok := c.Get(ctx, "u1", "s:1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	got.EvalTimeNs = 999

	again, _ := c.Get(ctx, "u1", "s:1")
	if again.EvalTimeNs != 100 {
		t.Fatalf("cached entry mutated through returned pointer: %d", again.EvalTimeNs)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	c.Set(ctx, "u1", "s:1", &authz.CheckResult{Allowed: true})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "u1", "s:1")
	if ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "u1", "s:1", &authz.CheckResult{Allowed: true})
	c.Set(ctx, "u1", "ss:2", &authz.CheckResult{Allowed: false})
	c.Set(ctx, "u2", "s:1", &authz.CheckResult{Allowed: true})

	c.InvalidateUser(ctx, "u1")

	if _, ok := c.Get(ctx, "u1", "s:1"); ok {
		t.Fatal("u1 s:1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "u1", "ss:2"); ok {
		t.Fatal("u1 ss:2 should be invalidated")
	}
	if _, ok := c.Get(ctx, "u2", "s:1"); !ok {
		t.Fatal("u2 s:1 should still be cached")
	}
}

func TestMemoryCacheColonInCallerID(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	// "u1:x" must not share "u1"'s key space.
	c.Set(ctx, "u1", "s:1", &authz.CheckResult{Allowed: true})
	c.Set(ctx, "u1:x", "s:1", &authz.CheckResult{Allowed: false})

	got, ok := c.Get(ctx, "u1", "s:1")
	if !ok || !got.Allowed {
		t.Fatal("u1 entry aliased by u1:x")
	}
	got, ok = c.Get(ctx, "u1:x", "s:1")
	if !ok || got.Allowed {
		t.Fatal("u1:x entry aliased by u1")
	}

	c.InvalidateUser(ctx, "u1")

	if _, ok := c.Get(ctx, "u1", "s:1"); ok {
		t.Fatal("u1 s:1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "u1:x", "s:1"); !ok {
		t.Fatal("u1:x s:1 should survive invalidation of u1")
	}
}

func TestMemoryCacheInvalidateAll(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, "u1", "s:1", &authz.CheckResult{Allowed: true})
	c.Set(ctx, "u2", "ss:2", &authz.CheckResult{Allowed: true})

	c.InvalidateAll(ctx)

	if _, ok := c.Get(ctx, "u1", "s:1"); ok {
		t.Fatal("u1 should be invalidated")
	}
	if _, ok := c.Get(ctx, "u2", "ss:2"); ok {
		t.Fatal("u2 should be invalidated")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for i := 0; i < 5; i++ {
		c.Set(ctx, "u1", fmt.Sprintf("s:%d", i), &authz.CheckResult{Allowed: true})
	}

	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	if size > 2 {
		t.Fatalf("expected max 2 entries, got %d", size)
	}
}
