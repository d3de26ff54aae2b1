package llmagent

import (
	"reflect"
	"testing"
)

func TestMergeObjectsPrefersNonEmpty(t *testing.T) {
	a := map[string]interface{}{"title": "", "price": 9.99}
	b := map[string]interface{}{"title": "Widget", "price": 0.0}

	merged := mergeExtractions(a, b)
	m, ok := merged.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map result, got %T", merged)
	}
	if m["title"] != "Widget" {
		t.Errorf("expected title filled from b, got %v", m["title"])
	}
	if m["price"] != 9.99 {
		t.Errorf("expected price kept from a (non-empty, b's 0.0 never overrides a numeric), got %v", m["price"])
	}
}

func TestMergeArraysConcatenatesAndDedups(t *testing.T) {
	a := []interface{}{"x", "y"}
	b := []interface{}{"y", "z"}

	merged := mergeExtractions(a, b)
	arr, ok := merged.([]interface{})
	if !ok {
		t.Fatalf("expected slice result, got %T", merged)
	}
	if !reflect.DeepEqual(arr, []interface{}{"x", "y", "z"}) {
		t.Fatalf("expected deduped concat, got %v", arr)
	}
}

func TestMergeNestedObjectsRecurse(t *testing.T) {
	a := map[string]interface{}{"author": map[string]interface{}{"name": ""}}
	b := map[string]interface{}{"author": map[string]interface{}{"name": "Ada"}}

	merged := mergeExtractions(a, b).(map[string]interface{})
	author := merged["author"].(map[string]interface{})
	if author["name"] != "Ada" {
		t.Fatalf("expected nested merge to fill empty name, got %v", author["name"])
	}
}

func TestIsEmptyVariants(t *testing.T) {
	cases := []struct {
		v    interface{}
		want bool
	}{
		{nil, true},
		{"", true},
		{"x", false},
		{[]interface{}{}, true},
		{[]interface{}{1}, false},
		{map[string]interface{}{}, true},
		{0, false}, // numeric zero is not treated as empty
	}
	for _, c := range cases {
		if got := isEmpty(c.v); got != c.want {
			t.Errorf("isEmpty(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}
