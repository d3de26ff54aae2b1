package search

import (
	"net/url"
	"strings"
	"testing"
)

func TestGoogleURLPaginatesByTensAndCarriesLocale(t *testing.T) {
	raw, err := pageURL("google", "golang concurrency", 3, "en", "us")
	if err != nil {
		t.Fatalf("pageURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("start") != "20" {
		t.Errorf("start = %q, want 20 (page 3 -> (3-1)*10)", q.Get("start"))
	}
	if q.Get("q") != "golang concurrency" {
		t.Errorf("q = %q", q.Get("q"))
	}
	if q.Get("hl") != "en" || q.Get("gl") != "us" {
		t.Errorf("locale params not carried: %v", q)
	}
}

func TestBingURLPaginatesFromOne(t *testing.T) {
	raw, err := pageURL("bing", "rust vs go", 2, "", "")
	if err != nil {
		t.Fatalf("pageURL: %v", err)
	}
	if !strings.Contains(raw, "first=11") {
		t.Errorf("expected first=11 for page 2, got %s", raw)
	}
}

func TestPageURLDefaultsToGoogleWhenEngineEmpty(t *testing.T) {
	raw, err := pageURL("", "foo", 1, "", "")
	if err != nil {
		t.Fatalf("pageURL: %v", err)
	}
	if !strings.Contains(raw, "google.com") {
		t.Errorf("expected google default, got %s", raw)
	}
}

func TestPageURLRejectsUnknownEngine(t *testing.T) {
	if _, err := pageURL("duckduckgo", "foo", 1, "", ""); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}
