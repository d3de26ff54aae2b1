package broker

// MaxPageSize is the hard cap on a single results page (spec §4.4: "page
// size ≤ 100").
const MaxPageSize = 100

// ClampLimit bounds a requested page size to (0, MaxPageSize], defaulting to
// MaxPageSize when the caller didn't ask for a specific size.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// NextSkip implements the exact pagination contract from spec §4.4:
// "next cursor = skip + returned.length iff skip + returned < total".
// ok is false once the page reaches the end of the result set.
func NextSkip(skip, returned, total int) (next int, ok bool) {
	n := skip + returned
	if n < total {
		return n, true
	}
	return 0, false
}
