// Package proxy implements the Proxy Router (C1): per-request proxy
// selection via explicit override, rules file, and tiered failover with
// per-hostname tracking.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

// ErrProxyUnavailable is raised when the rules file is malformed at load
// time (spec §4.1: "Fails with PROXY_UNAVAILABLE when rules are malformed").
var ErrProxyUnavailable = errors.New("PROXY_UNAVAILABLE")

// Router implements interfaces.ProxyRouter.
type Router struct {
	rules  *RuleSet
	tiers  *TierTracker
	logger arbor.ILogger
}

// NewRouter loads rules (may be nil) and builds the tier tracker from the
// comma-split ANYCRAWL_PROXY_URL tier list.
func NewRouter(rules []Rule, tierURLs []string, logger arbor.ILogger) (*Router, error) {
	rs, err := NewRuleSet(rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxyUnavailable, err)
	}
	return &Router{
		rules:  rs,
		tiers:  NewTierTracker(tierURLs),
		logger: logger,
	}, nil
}

// Select implements the three-step resolution order from spec §4.1: an
// explicit per-request override wins outright; then a rule match (url exact
// > pattern on full URL > domain on hostname); then the tiered fallback list
// via TierTracker.
func (r *Router) Select(ctx context.Context, fullURL string, override string) (interfaces.ProxySelection, error) {
	if override != "" {
		if _, err := url.Parse(override); err != nil {
			return interfaces.ProxySelection{}, fmt.Errorf("proxy: invalid override URL %q: %w", override, err)
		}
		return interfaces.ProxySelection{Tier: interfaces.ProxyTierPremium, URL: override}, nil
	}

	host := hostOf(fullURL)
	if proxyURL, ok := r.rules.Match(fullURL, host); ok {
		return interfaces.ProxySelection{Tier: interfaces.ProxyTierResi, URL: proxyURL}, nil
	}

	tierURL := r.tiers.Select(host, "")
	if tierURL == "" {
		return interfaces.ProxySelection{Tier: interfaces.ProxyTierDirect}, nil
	}
	return interfaces.ProxySelection{Tier: tierFromURL(tierURL), URL: tierURL}, nil
}

// Report updates the tier tracker's histogram after a fetch attempt
// (spec §4.1). Only proxied selections with a non-empty URL carry state.
func (r *Router) Report(ctx context.Context, fullURL string, sel interfaces.ProxySelection, outcome interfaces.ProxyOutcome) {
	if sel.URL == "" || outcome == interfaces.ProxyOutcomeSuccess {
		return
	}
	host := hostOf(fullURL)
	r.tiers.ReportError(host, sel.URL)
	r.logger.Debug().
		Str("host", host).
		Str("proxy", redactProxyURL(sel.URL)).
		Msg("proxy attempt failed, tier histogram updated")
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

func tierFromURL(u string) interfaces.ProxyTier {
	lower := strings.ToLower(u)
	switch {
	case strings.Contains(lower, "premium"):
		return interfaces.ProxyTierPremium
	case strings.Contains(lower, "resi"):
		return interfaces.ProxyTierResi
	default:
		return interfaces.ProxyTierDC
	}
}

// redactProxyURL strips userinfo before logging a proxy endpoint.
func redactProxyURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-proxy-url"
	}
	u.User = nil
	return u.String()
}
