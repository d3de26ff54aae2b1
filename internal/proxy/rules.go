package proxy

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleKind is the three rule forms from spec §4.1, in resolution precedence
// order: url exact > pattern (full URL glob) > domain (hostname glob).
type RuleKind string

const (
	RuleURL    RuleKind = "url"
	RulePattern RuleKind = "pattern"
	RuleDomain RuleKind = "domain"
)

// Rule binds one match expression to a proxy URL.
type Rule struct {
	Kind     RuleKind `toml:"kind" json:"kind"`
	Match    string   `toml:"match" json:"match"`
	ProxyURL string   `toml:"proxy_url" json:"proxy_url"`

	compiled *regexp.Regexp // nil for RuleURL, which is compared literally
}

// RuleSet is a loaded, precompiled rules file (spec §4.1 resolution step 2).
type RuleSet struct {
	urlRules    []Rule
	patternRules []Rule
	domainRules []Rule
}

// compileGlob turns a glob with `*` and `?` wildcards into a case-insensitive
// anchored regexp (spec §4.1: "Wildcards * and ?; case-insensitive; patterns
// escape regex metacharacters"). The standard library has no glob matcher, so
// this is the one place in the router that reaches for regexp directly rather
// than a pack dependency.
func compileGlob(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// NewRuleSet compiles a list of raw rules, failing with a descriptive error
// if any pattern/domain glob does not compile (surfaces as PROXY_UNAVAILABLE
// to callers per spec §4.1).
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	rs := &RuleSet{}
	for _, r := range rules {
		switch r.Kind {
		case RuleURL:
			rs.urlRules = append(rs.urlRules, r)
		case RulePattern:
			re, err := compileGlob(r.Match)
			if err != nil {
				return nil, fmt.Errorf("proxy: malformed pattern rule %q: %w", r.Match, err)
			}
			r.compiled = re
			rs.patternRules = append(rs.patternRules, r)
		case RuleDomain:
			re, err := compileGlob(r.Match)
			if err != nil {
				return nil, fmt.Errorf("proxy: malformed domain rule %q: %w", r.Match, err)
			}
			r.compiled = re
			rs.domainRules = append(rs.domainRules, r)
		default:
			return nil, fmt.Errorf("proxy: unknown rule kind %q", r.Kind)
		}
	}
	return rs, nil
}

// Match resolves a rule for the given full URL and hostname, in precedence
// order: url exact, then pattern (full URL), then domain (hostname). Returns
// ("", false) when nothing matches.
func (rs *RuleSet) Match(fullURL, host string) (string, bool) {
	if rs == nil {
		return "", false
	}
	for _, r := range rs.urlRules {
		if r.Match == fullURL {
			return r.ProxyURL, true
		}
	}
	for _, r := range rs.patternRules {
		if r.compiled.MatchString(fullURL) {
			return r.ProxyURL, true
		}
	}
	for _, r := range rs.domainRules {
		if r.compiled.MatchString(host) {
			return r.ProxyURL, true
		}
	}
	return "", false
}
