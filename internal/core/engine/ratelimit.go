package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/metrics"
)

// Rate limit scopes.
const (
	ScopeBurst = "burst"
	ScopeDaily = "daily"
)

// RateLimit is the number of requests a client may make per window.
type RateLimit struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// DefaultLimits: ten API calls per minute and ten generations per day.
var DefaultLimits = map[string]RateLimit{
	ScopeBurst: {RequestsPerWindow: 10, WindowDuration: time.Minute},
	ScopeDaily: {RequestsPerWindow: 10, WindowDuration: 24 * time.Hour},
}

// WindowStore persists per-key window state. UpdateWindow must apply fn
// atomically with respect to other updates of the same key: fn receives the
// current state (nil if absent or expired) and returns the state to write,
// or nil to leave the record untouched. fn may run more than once.
type WindowStore interface {
	UpdateWindow(ctx context.Context, key string, ttl time.Duration, fn func(current *core.WindowState) *core.WindowState) error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Scope      string
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter enforces per-client fixed windows measured from the client's
// last admitted request.
type RateLimiter struct {
	Store  WindowStore
	Limits map[string]RateLimit
	Clock  func() time.Time

	// local serializes updates when Store offers no cross-process atomicity.
	local sync.Mutex
}

// WindowKey is the store key for client under scope.
func WindowKey(scope, client string) string {
	return scope + ":" + strings.TrimSpace(client)
}

// Allow records a request from client under scope and reports whether it may proceed.
func (r *RateLimiter) Allow(ctx context.Context, scope, client string) (Decision, error) {
	limit, err := r.getLimit(scope)
	if err != nil {
		return Decision{}, err
	}
	decision := Decision{Scope: scope, Allowed: true, Limit: limit.RequestsPerWindow, Remaining: limit.RequestsPerWindow}
	if r == nil || r.Store == nil {
		return decision, nil
	}
	if strings.TrimSpace(client) == "" {
		return Decision{}, fmt.Errorf("client key is required")
	}

	r.local.Lock()
	defer r.local.Unlock()

	now := r.now()
	err = r.Store.UpdateWindow(ctx, WindowKey(scope, client), limit.WindowDuration, func(current *core.WindowState) *core.WindowState {
		decision = apply(limit, current, now)
		if !decision.Allowed {
			return nil
		}
		return nextState(current, now, limit)
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", scope, err)
	}
	decision.Scope = scope
	if !decision.Allowed {
		metrics.RecordRateLimitRejection(scope)
	}
	return decision, nil
}

func apply(limit RateLimit, current *core.WindowState, now time.Time) Decision {
	d := Decision{Allowed: true, Limit: limit.RequestsPerWindow}
	if expired(limit, current, now) {
		d.Remaining = limit.RequestsPerWindow - 1
		return d
	}
	if current.Count >= limit.RequestsPerWindow {
		d.Allowed = false
		d.RetryAfter = current.LastRequest.Add(limit.WindowDuration).Sub(now)
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
		return d
	}
	d.Remaining = limit.RequestsPerWindow - current.Count - 1
	return d
}

func nextState(current *core.WindowState, now time.Time, limit RateLimit) *core.WindowState {
	if expired(limit, current, now) {
		return &core.WindowState{Count: 1, WindowStart: now, LastRequest: now}
	}
	next := *current
	next.Count++
	next.LastRequest = now
	return &next
}

func expired(limit RateLimit, current *core.WindowState, now time.Time) bool {
	return current == nil || now.Sub(current.LastRequest) > limit.WindowDuration
}

// ApplyOverrides replaces limits for the named scopes. Non-positive values are ignored.
func (r *RateLimiter) ApplyOverrides(overrides map[string]RateLimit) {
	if r == nil || len(overrides) == 0 {
		return
	}
	if r.Limits == nil {
		r.Limits = make(map[string]RateLimit, len(DefaultLimits))
		for key, limit := range DefaultLimits {
			r.Limits[key] = limit
		}
	}
	for scope, limit := range overrides {
		scope = strings.TrimSpace(scope)
		if scope == "" || limit.RequestsPerWindow <= 0 || limit.WindowDuration <= 0 {
			continue
		}
		r.Limits[scope] = limit
	}
}

func (r *RateLimiter) getLimit(scope string) (RateLimit, error) {
	limits := DefaultLimits
	if r != nil && r.Limits != nil {
		limits = r.Limits
	}
	limit, ok := limits[scope]
	if !ok {
		return RateLimit{}, fmt.Errorf("unknown rate limit scope %q", scope)
	}
	return limit, nil
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
