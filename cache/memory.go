// Package cache provides caching implementations for permission check
// results.
package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	authz "github.com/Hejazi-bu/Hejazi-SSD-sub000"
)

// Compile-time interface check.
var _ authz.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration and a size cap.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	result    *authz.CheckResult
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached check result. The returned value is a copy, so
// callers may annotate it without corrupting the cached entry.
func (m *Memory) Get(_ context.Context, callerID, permissionID string) (*authz.CheckResult, bool) {
	key := cacheKey(callerID, permissionID)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	cp := *e.result
	return &cp, true
}

// Set stores a check result in the cache.
func (m *Memory) Set(_ context.Context, callerID, permissionID string, result *authz.CheckResult) {
	key := cacheKey(callerID, permissionID)
	cp := *result
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			// Evict one arbitrary entry.
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		result:    &cp,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// InvalidateUser removes all cached results for one caller.
func (m *Memory) InvalidateUser(_ context.Context, callerID string) {
	prefix := callerPrefix(callerID)
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// InvalidateAll removes all cached results.
func (m *Memory) InvalidateAll(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
}

// Keys are length-prefixed so a caller id containing ":" cannot alias
// another caller's key space.
func callerPrefix(callerID string) string {
	return strconv.Itoa(len(callerID)) + ":" + callerID + ":"
}

func cacheKey(callerID, permissionID string) string {
	return callerPrefix(callerID) + permissionID
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
