package frontier

import (
	"net/url"
	"testing"
)

func parseOrFail(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestScopeAll(t *testing.T) {
	seed := parseOrFail(t, "https://example.com/")
	root := newScopeRoot(seed)
	other := parseOrFail(t, "https://totally-different.test/x")
	if !root.inScope(other, StrategyAll, false, false) {
		t.Error("expected all strategy to admit any URL")
	}
}

func TestScopeSameOrigin(t *testing.T) {
	seed := parseOrFail(t, "https://example.com:8443/")
	root := newScopeRoot(seed)

	cases := []struct {
		url  string
		want bool
	}{
		{"https://example.com:8443/page", true},
		{"http://example.com:8443/page", false},
		{"https://example.com/page", false},
		{"https://sub.example.com:8443/page", false},
	}
	for _, c := range cases {
		if got := root.inScope(parseOrFail(t, c.url), StrategySameOrigin, false, false); got != c.want {
			t.Errorf("same-origin(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestScopeSameHostname(t *testing.T) {
	seed := parseOrFail(t, "https://www.example.com/")
	root := newScopeRoot(seed)

	if !root.inScope(parseOrFail(t, "https://www.example.com/other"), StrategySameHostname, false, false) {
		t.Error("expected exact hostname match to be in scope")
	}
	if root.inScope(parseOrFail(t, "https://blog.example.com/"), StrategySameHostname, false, false) {
		t.Error("expected subdomain to be out of scope without allow_subdomains")
	}
	if !root.inScope(parseOrFail(t, "https://blog.example.com/"), StrategySameHostname, true, false) {
		t.Error("expected subdomain to be in scope with allow_subdomains")
	}
}

func TestScopeSameDomain(t *testing.T) {
	seed := parseOrFail(t, "https://www.example.co.uk/")
	root := newScopeRoot(seed)

	if !root.inScope(parseOrFail(t, "https://shop.example.co.uk/"), StrategySameDomain, false, false) {
		t.Error("expected sibling subdomain to share registrable domain")
	}
	if root.inScope(parseOrFail(t, "https://example.org/"), StrategySameDomain, false, false) {
		t.Error("expected different domain to be out of scope")
	}
}

func TestScopeAllowExternalOverridesStrategy(t *testing.T) {
	seed := parseOrFail(t, "https://example.com/")
	root := newScopeRoot(seed)
	if !root.inScope(parseOrFail(t, "https://anything.test/"), StrategySameOrigin, false, true) {
		t.Error("expected allow_external_links to override strategy entirely")
	}
}
