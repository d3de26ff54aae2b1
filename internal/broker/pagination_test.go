package broker

import "testing"

func TestClampLimit(t *testing.T) {
	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero defaults to max", 0, MaxPageSize},
		{"negative defaults to max", -5, MaxPageSize},
		{"over cap clamps down", 500, MaxPageSize},
		{"within range passes through", 25, 25},
		{"exactly cap passes through", MaxPageSize, MaxPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampLimit(tc.limit); got != tc.want {
				t.Errorf("ClampLimit(%d) = %d, want %d", tc.limit, got, tc.want)
			}
		})
	}
}

func TestNextSkip(t *testing.T) {
	cases := []struct {
		name             string
		skip, ret, total int
		wantNext         int
		wantOK           bool
	}{
		{"more remaining", 0, 10, 25, 10, true},
		{"exact last page", 20, 5, 25, 0, false},
		{"empty result set", 0, 0, 0, 0, false},
		{"single page covers all", 0, 25, 25, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, ok := NextSkip(tc.skip, tc.ret, tc.total)
			if ok != tc.wantOK || (ok && next != tc.wantNext) {
				t.Errorf("NextSkip(%d, %d, %d) = (%d, %v), want (%d, %v)", tc.skip, tc.ret, tc.total, next, ok, tc.wantNext, tc.wantOK)
			}
		})
	}
}
