package checker

import (
	"time"

	"github.com/namelens/dentalnames/internal/core"
)

// CachePolicy sets how long a lookup is reused, per verdict. Zero fields
// take the package defaults.
type CachePolicy struct {
	AvailableTTL time.Duration
	TakenTTL     time.Duration
	UnknownTTL   time.Duration
}

var defaultCachePolicy = CachePolicy{
	AvailableTTL: 5 * time.Minute,
	TakenTTL:     time.Hour,
	UnknownTTL:   30 * time.Second,
}

// TTL returns the lifetime for a result with the given verdict.
func (p CachePolicy) TTL(a core.Availability) time.Duration {
	ttl, fallback := p.UnknownTTL, defaultCachePolicy.UnknownTTL
	switch a {
	case core.AvailabilityAvailable:
		ttl, fallback = p.AvailableTTL, defaultCachePolicy.AvailableTTL
	case core.AvailabilityTaken:
		ttl, fallback = p.TakenTTL, defaultCachePolicy.TakenTTL
	}
	if ttl <= 0 {
		return fallback
	}
	return ttl
}
