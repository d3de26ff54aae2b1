package frontier

import "testing"

func TestExtractLinksResolvesRelativeAndDedups(t *testing.T) {
	html := `
		<html><body>
			<a href="/a">A</a>
			<a href="b">B</a>
			<a href="https://example.com/a">A again</a>
			<a href="#frag">fragment only</a>
		</body></html>
	`
	links, err := extractLinks(html, "https://example.com/base/")
	if err != nil {
		t.Fatalf("extractLinks: %v", err)
	}

	want := map[string]bool{
		"https://example.com/a":      true,
		"https://example.com/base/b": true,
		"https://example.com/base/#frag": true,
	}
	if len(links) != len(want) {
		t.Fatalf("got %d links, want %d: %v", len(links), len(want), links)
	}
	for _, l := range links {
		if !want[l] {
			t.Errorf("unexpected link %q", l)
		}
	}
}
