package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/openrdap/rdap"

	"github.com/namelens/dentalnames/internal/core"
	"github.com/namelens/dentalnames/internal/metrics"
)

const (
	dnsSource  = "dns"
	rdapSource = "rdap"
)

// DefaultExtensions are checked when a request names none.
var DefaultExtensions = []string{".com", ".clinic", ".dentist"}

// Resolver is the subset of net.Resolver used for lookups.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DomainCache persists results between checks.
type DomainCache interface {
	GetDomainResult(ctx context.Context, domain string) (*core.DomainResult, error)
	SetDomainResult(ctx context.Context, result *core.DomainResult, ttl time.Duration) error
}

// DomainChecker resolves candidate domains with DNS and optionally confirms
// apparent availability with RDAP.
type DomainChecker struct {
	Resolver    Resolver
	Cache       DomainCache
	CachePolicy CachePolicy
	Timeout     time.Duration
	Clock       func() time.Time

	// ConfirmRDAP queries RDAP when DNS reports no records.
	ConfirmRDAP bool
	RDAP        *rdap.Client
	// RDAPOverrides routes TLDs (without dot) to fixed RDAP base URLs.
	RDAPOverrides map[string][]string
}

// SanitizeName removes all whitespace and lowercases name.
func SanitizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// NormalizeExtension returns ext with exactly one leading dot, lowercased.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// CheckName checks sanitized name under every extension concurrently.
// Results are returned in extension order.
func (d *DomainChecker) CheckName(ctx context.Context, name string, extensions []string) ([]core.DomainResult, error) {
	base := SanitizeName(name)
	if base == "" {
		return nil, errors.New("name is required")
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if normalized := NormalizeExtension(ext); normalized != "" {
			exts = append(exts, normalized)
		}
	}
	if len(exts) == 0 {
		return nil, errors.New("at least one extension is required")
	}

	results := make([]core.DomainResult, len(exts))
	var wg sync.WaitGroup
	for i, ext := range exts {
		wg.Add(1)
		go func(i int, ext string) {
			defer wg.Done()
			results[i] = d.Check(ctx, base+ext, ext)
		}(i, ext)
	}
	wg.Wait()
	return results, nil
}

// Check resolves a single domain. Lookup failures never return an error;
// they are reported as AvailabilityUnknown with a message.
func (d *DomainChecker) Check(ctx context.Context, domain, ext string) core.DomainResult {
	requestedAt := d.now()

	if cached := d.cached(ctx, domain); cached != nil {
		cached.Provenance.RequestedAt = requestedAt
		metrics.RecordDomainCheck(ext, cached.Available.String(), true)
		return *cached
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	result := d.checkDNS(ctx, domain, ext, requestedAt)
	if result.Available == core.AvailabilityAvailable && d.ConfirmRDAP {
		result = d.confirmRDAP(ctx, result)
	}

	d.store(ctx, &result)
	metrics.RecordDomainCheck(ext, result.Available.String(), false)
	return result
}

func (d *DomainChecker) checkDNS(ctx context.Context, domain, ext string, requestedAt time.Time) core.DomainResult {
	resolver := d.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupHost(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return d.result(domain, ext, core.AvailabilityAvailable, "no dns records", requestedAt, dnsSource, "")
		}
		return d.result(domain, ext, core.AvailabilityUnknown, fmt.Sprintf("dns lookup failed: %v", err), requestedAt, dnsSource, "")
	}
	if len(addrs) == 0 {
		return d.result(domain, ext, core.AvailabilityAvailable, "no dns records", requestedAt, dnsSource, "")
	}
	return d.result(domain, ext, core.AvailabilityTaken, "dns records present", requestedAt, dnsSource, "")
}

func (d *DomainChecker) result(domain, ext string, availability core.Availability, message string, requestedAt time.Time, source, server string) core.DomainResult {
	return core.DomainResult{
		Domain:    domain,
		Extension: ext,
		Available: availability,
		Message:   message,
		Provenance: core.Provenance{
			RequestedAt: requestedAt,
			ResolvedAt:  d.now(),
			Source:      source,
			Server:      server,
		},
	}
}

func (d *DomainChecker) cached(ctx context.Context, domain string) *core.DomainResult {
	if d == nil || d.Cache == nil {
		return nil
	}
	cached, err := d.Cache.GetDomainResult(ctx, domain)
	if err != nil || cached == nil {
		return nil
	}
	cached.Provenance.FromCache = true
	return cached
}

func (d *DomainChecker) store(ctx context.Context, result *core.DomainResult) {
	if d == nil || d.Cache == nil || result == nil {
		return
	}
	ttl := d.CachePolicy.TTL(result.Available)
	if ttl <= 0 {
		return
	}
	expires := result.Provenance.ResolvedAt.Add(ttl)
	result.Provenance.CacheExpiresAt = &expires
	_ = d.Cache.SetDomainResult(ctx, result, ttl)
}

func (d *DomainChecker) now() time.Time {
	if d != nil && d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}
