package proxy

import "sync"

// tierState is the per-hostname histogram + current-tier-index state from
// spec §4.1: "State: per-hostname histogram over tiers; current tier index."
type tierState struct {
	histogram []int // one bucket per configured tier URL
	current   int
}

// TierTracker implements the error-driven tier promotion/demotion policy
// (spec §4.1): on error, the offending tier's bucket grows by 10; every
// request decays all non-current buckets by 1 (floor 0); the tracker then
// moves to whichever neighbour has the lowest score, with ties preferring
// the lower (cheaper) tier.
type TierTracker struct {
	mu    sync.Mutex
	tiers []string // ordered cheapest-first tier URLs
	state map[string]*tierState
}

// NewTierTracker builds a tracker over the ordered list of tier URLs parsed
// from ANYCRAWL_PROXY_URL (comma-split).
func NewTierTracker(tierURLs []string) *TierTracker {
	return &TierTracker{
		tiers: tierURLs,
		state: make(map[string]*tierState),
	}
}

func (t *TierTracker) stateFor(host string) *tierState {
	s, ok := t.state[host]
	if !ok {
		s = &tierState{histogram: make([]int, len(t.tiers))}
		t.state[host] = s
	}
	return s
}

// Select returns the tier URL the tracker currently believes cheapest for
// host, decaying non-current buckets and re-evaluating the neighbour scores
// first. pinned, when non-empty, short-circuits to that exact tier URL
// without mutating state (a caller pinning a tier explicitly, spec §4.1).
func (t *TierTracker) Select(host string, pinned string) string {
	if len(t.tiers) == 0 {
		return ""
	}
	if pinned != "" {
		return pinned
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.stateFor(host)
	for i := range s.histogram {
		if i == s.current {
			continue
		}
		if s.histogram[i] > 0 {
			s.histogram[i]--
		}
	}

	best := s.current
	bestScore := s.histogram[s.current]
	for _, i := range []int{s.current - 1, s.current + 1} {
		if i < 0 || i >= len(s.histogram) {
			continue
		}
		score := s.histogram[i]
		if score < bestScore || (score == bestScore && i < best) {
			best = i
			bestScore = score
		}
	}
	s.current = best
	return t.tiers[best]
}

// ReportError records a failure for host against tier URL proxyURL, growing
// that tier's histogram bucket by 10 (spec §4.1).
func (t *TierTracker) ReportError(host, proxyURL string) {
	idx := -1
	for i, u := range t.tiers {
		if u == proxyURL {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stateFor(host)
	s.histogram[idx] += 10
}
