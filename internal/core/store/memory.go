package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/namelens/dentalnames/internal/core"
)

type memoryWindow struct {
	state     core.WindowState
	expiresAt time.Time
}

type memoryDomain struct {
	result    core.DomainResult
	expiresAt time.Time
}

// sweepInterval bounds how often expired entries are evicted.
const sweepInterval = time.Minute

// MemoryStore keeps windows and domain results in process memory. An entry
// stays readable up to and including its expiry instant; expired entries are
// evicted on access and by a periodic sweep.
type MemoryStore struct {
	Clock func() time.Time

	mu        sync.Mutex
	windows   map[string]memoryWindow
	domains   map[string]memoryDomain
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: map[string]memoryWindow{},
		domains: map[string]memoryDomain{},
	}
}

func (m *MemoryStore) UpdateWindow(ctx context.Context, key string, ttl time.Duration, fn func(*core.WindowState) *core.WindowState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	var current *core.WindowState
	if w, ok := m.windows[key]; ok {
		if now.After(w.expiresAt) {
			delete(m.windows, key)
		} else {
			state := w.state
			current = &state
		}
	}
	next := fn(current)
	if next == nil {
		return nil
	}
	m.windows[key] = memoryWindow{state: *next, expiresAt: next.LastRequest.Add(ttl)}
	return nil
}

func (m *MemoryStore) ListRateLimits(ctx context.Context, q RateLimitQuery) ([]RateLimitEntry, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entries := []RateLimitEntry{}
	for key, w := range m.windows {
		if now.After(w.expiresAt) || !q.Matches(key) {
			continue
		}
		entries = append(entries, RateLimitEntry{Key: key, State: w.state, ExpiresAt: w.expiresAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

func (m *MemoryStore) ResetRateLimits(ctx context.Context, q RateLimitQuery) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for key := range m.windows {
		if q.Matches(key) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) GetDomainResult(ctx context.Context, domain string) (*core.DomainResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(domain))
	entry, ok := m.domains[key]
	if !ok {
		return nil, nil
	}
	if m.now().After(entry.expiresAt) {
		delete(m.domains, key)
		return nil, nil
	}
	result := entry.result
	expires := entry.expiresAt
	result.Provenance.CacheExpiresAt = &expires
	return &result, nil
}

func (m *MemoryStore) SetDomainResult(ctx context.Context, result *core.DomainResult, ttl time.Duration) error {
	if result == nil || ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	m.domains[strings.ToLower(strings.TrimSpace(result.Domain))] = memoryDomain{result: *result, expiresAt: now.Add(ttl)}
	return nil
}

// Len reports how many windows and domain results are held, expired or not.
func (m *MemoryStore) Len() (windows, domains int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows), len(m.domains)
}

// sweep drops expired entries at most once per sweepInterval. Callers hold mu.
func (m *MemoryStore) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for key, w := range m.windows {
		if now.After(w.expiresAt) {
			delete(m.windows, key)
		}
	}
	for key, d := range m.domains {
		if now.After(d.expiresAt) {
			delete(m.domains, key)
		}
	}
}

func (m *MemoryStore) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now().UTC()
}
