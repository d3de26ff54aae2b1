package frontier

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Strategy is one of the four scope strategies from spec §4.5.
type Strategy string

const (
	StrategyAll          Strategy = "all"
	StrategySameDomain   Strategy = "same-domain"
	StrategySameHostname Strategy = "same-hostname"
	StrategySameOrigin   Strategy = "same-origin"
)

// scopeRoot captures the seed URL facets every discovered link is checked
// against, computed once per job at Seed time.
type scopeRoot struct {
	scheme     string
	host       string // hostname only, no port
	port       string
	domain     string // registrable domain ("eTLD+1"), e.g. "example.co.uk"
}

func newScopeRoot(seed *url.URL) scopeRoot {
	host := seed.Hostname()
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// IPs, single-label hosts, or unknown suffixes fall back to the
		// bare hostname so same-domain degrades to same-hostname instead
		// of rejecting everything.
		domain = host
	}
	return scopeRoot{
		scheme: seed.Scheme,
		host:   host,
		port:   seed.Port(),
		domain: domain,
	}
}

// inScope applies the configured strategy plus the allow_subdomains and
// allow_external_links escape hatches (spec §4.5).
func (s scopeRoot) inScope(candidate *url.URL, strategy Strategy, allowSubdomains, allowExternal bool) bool {
	if allowExternal {
		return true
	}

	switch strategy {
	case StrategyAll:
		return true
	case StrategySameOrigin:
		return candidate.Scheme == s.scheme && candidate.Hostname() == s.host && candidate.Port() == s.port
	case StrategySameHostname:
		host := candidate.Hostname()
		if host == s.host {
			return true
		}
		return allowSubdomains && strings.HasSuffix(host, "."+s.host)
	case StrategySameDomain, "":
		// Subdomains already share the seed's registrable domain, so
		// allow_subdomains has no additional effect here.
		host := candidate.Hostname()
		cDomain, err := publicsuffix.EffectiveTLDPlusOne(host)
		if err != nil {
			cDomain = host
		}
		return cDomain == s.domain
	default:
		return candidate.Hostname() == s.host
	}
}
