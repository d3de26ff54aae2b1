package engine

// rotationPolicy enforces spec §4.2's session-pool retry rule: rotate to a
// fresh pooled browser context on every retryable error, up to
// MaxSessionRotations, and never retry more than MaxRetries times overall.
type rotationPolicy struct {
	maxRotations int
	maxRetries   int
}

func newRotationPolicy(cfg Config) rotationPolicy {
	return rotationPolicy{maxRotations: cfg.MaxSessionRotations, maxRetries: cfg.MaxRetries}
}

// shouldRetry reports whether attempt (0-based, already failed once) may be
// retried given the error was classified as retryable.
func (p rotationPolicy) shouldRetry(attempt int, retryable bool) bool {
	if !retryable {
		return false
	}
	if attempt >= p.maxRetries-1 {
		return false
	}
	if attempt >= p.maxRotations-1 {
		return false
	}
	return true
}
