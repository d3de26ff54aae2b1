package frontier

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// compileGlob turns a glob with `*`/`?` wildcards into a case-insensitive
// anchored regexp, matched against a URL's path. Mirrors internal/proxy's
// compileGlob (spec §4.1/§4.5 share the same wildcard subset); duplicated
// rather than exported cross-package since each compiles against a different
// match target (full URL/hostname vs. path).
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

// pathFilter compiles include/exclude path globs once per job (spec §4.5:
// "include_paths / exclude_paths (glob list)").
type pathFilter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

func newPathFilter(includePaths, excludePaths []string) *pathFilter {
	f := &pathFilter{}
	for _, p := range includePaths {
		if re, err := compileGlob(p); err == nil {
			f.include = append(f.include, re)
		}
	}
	for _, p := range excludePaths {
		if re, err := compileGlob(p); err == nil {
			f.exclude = append(f.exclude, re)
		}
	}
	return f
}

// allows applies exclude-first, then include-if-configured (spec §4.5
// "apply include/exclude globs"), matched against the URL path.
func (f *pathFilter) allows(u *url.URL) bool {
	path := u.Path
	for _, re := range f.exclude {
		if re.MatchString(path) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, re := range f.include {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// normalizeURL resolves href against base, strips the fragment always, and
// optionally strips the query string (spec §4.5: "normalize (resolve relative
// URLs; optionally strip query string)"). Returns "" for links that can't be
// resolved to an absolute http(s) URL.
func normalizeURL(href string, base *url.URL, stripQuery bool) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "data:") {
		return ""
	}

	resolved, err := base.Parse(href)
	if err != nil {
		return ""
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""

	if stripQuery {
		resolved.RawQuery = ""
	} else if resolved.RawQuery != "" {
		// Sort query params so two links that differ only in param order
		// dedup to the same key.
		q := resolved.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sorted := url.Values{}
		for _, k := range keys {
			sorted[k] = q[k]
		}
		resolved.RawQuery = sorted.Encode()
	}

	return resolved.String()
}
