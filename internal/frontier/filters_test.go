package frontier

import (
	"net/url"
	"testing"
)

func TestPathFilterExcludeWinsOverInclude(t *testing.T) {
	f := newPathFilter([]string{"/blog/*"}, []string{"/blog/drafts/*"})
	allowed, _ := url.Parse("https://example.com/blog/post-1")
	excluded, _ := url.Parse("https://example.com/blog/drafts/secret")
	notIncluded, _ := url.Parse("https://example.com/about")

	if !f.allows(allowed) {
		t.Error("expected /blog/post-1 to be allowed")
	}
	if f.allows(excluded) {
		t.Error("expected /blog/drafts/secret to be excluded")
	}
	if f.allows(notIncluded) {
		t.Error("expected /about to be rejected when include patterns are set")
	}
}

func TestPathFilterNoIncludeAllowsEverythingNotExcluded(t *testing.T) {
	f := newPathFilter(nil, []string{"/private/*"})
	ok, _ := url.Parse("https://example.com/anything")
	blocked, _ := url.Parse("https://example.com/private/x")

	if !f.allows(ok) {
		t.Error("expected unfiltered path to be allowed")
	}
	if f.allows(blocked) {
		t.Error("expected excluded path to be rejected")
	}
}

func TestNormalizeURLStripsFragmentAlways(t *testing.T) {
	base, _ := url.Parse("https://example.com/page")
	got := normalizeURL("/other#section", base, false)
	if got != "https://example.com/other" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeURLStripsQueryWhenConfigured(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	got := normalizeURL("/search?q=go&page=2", base, true)
	if got != "https://example.com/search" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeURLSortsQueryParamsForDedup(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	a := normalizeURL("/x?b=2&a=1", base, false)
	b := normalizeURL("/x?a=1&b=2", base, false)
	if a != b {
		t.Errorf("expected param-order-insensitive normalization, got %q vs %q", a, b)
	}
}

func TestNormalizeURLRejectsNonHTTPSchemes(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	cases := []string{"javascript:alert(1)", "mailto:a@b.com", "tel:+1555", "data:text/plain;base64,xx", "#frag-only"}
	for _, href := range cases {
		if got := normalizeURL(href, base, false); got != "" {
			t.Errorf("normalizeURL(%q) = %q, want empty", href, got)
		}
	}
}
