package checker

import (
	"context"
	"net/url"
	"strings"

	"github.com/openrdap/rdap"

	"github.com/namelens/dentalnames/internal/core"
)

var defaultRDAPOverrides = map[string][]string{
	"com": {"https://rdap.verisign.com/com/v1"},
}

// confirmRDAP upgrades a DNS "available" verdict to "taken" when the registry
// knows the domain. RDAP failures leave the DNS verdict in place.
func (d *DomainChecker) confirmRDAP(ctx context.Context, result core.DomainResult) core.DomainResult {
	client := d.RDAP
	if client == nil {
		client = &rdap.Client{}
	}

	req := rdap.NewDomainRequest(result.Domain).WithContext(ctx)
	server := ""
	if servers := d.rdapOverrideServers(result.Extension); len(servers) > 0 {
		serverURL, err := url.Parse(servers[0])
		if err == nil {
			req = req.WithServer(serverURL)
			server = rdapDomainURL(serverURL, result.Domain)
		}
	}
	if d.Timeout > 0 {
		req.Timeout = d.Timeout
	}

	resp, err := client.Do(req)
	if err != nil {
		if isNotFound(err) {
			result.Message = "no dns records, rdap not found"
			result.Provenance.Source = rdapSource
			result.Provenance.Server = server
			result.Provenance.ResolvedAt = d.now()
		}
		return result
	}

	if _, ok := resp.Object.(*rdap.Domain); ok {
		result.Available = core.AvailabilityTaken
		result.Message = "registered without dns records"
		result.Provenance.Source = rdapSource
		result.Provenance.Server = server
		result.Provenance.ResolvedAt = d.now()
	}
	return result
}

func (d *DomainChecker) rdapOverrideServers(ext string) []string {
	tld := strings.TrimPrefix(NormalizeExtension(ext), ".")
	if tld == "" {
		return nil
	}
	overrides := defaultRDAPOverrides
	if d != nil && d.RDAPOverrides != nil {
		overrides = d.RDAPOverrides
	}
	return overrides[tld]
}

func rdapDomainURL(server *url.URL, domain string) string {
	if server == nil {
		return ""
	}
	temp := *server
	temp.RawQuery = ""
	temp.Fragment = ""
	base := temp.String()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "domain/" + strings.TrimSpace(domain)
}

func isNotFound(err error) bool {
	clientErr, ok := err.(*rdap.ClientError)
	if !ok {
		return false
	}
	return clientErr.Type == rdap.ObjectDoesNotExist
}
