// Package engine implements the Engine Adapter (C2): three backends — a
// static HTML parser and two headless-browser variants — normalized behind
// the interfaces.Engine contract.
package engine

import (
	"fmt"
	"time"
)

// Config is the shared, engine-agnostic adapter configuration (spec §4.2).
type Config struct {
	Headless       bool
	IgnoreSSLError bool
	UserAgent      string
	KeepAlive      bool
	DefaultTimeout time.Duration // default 30s, bounded 1s..600s per request

	// MaxSessionRotations and MaxRetries bound browser session rotation on
	// error (spec §4.2: "Max session rotations: 3. Max retries: 3").
	MaxSessionRotations int
	MaxRetries          int

	MaxPoolInstances int
}

// DefaultConfig matches the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		Headless:            true,
		IgnoreSSLError:      false,
		UserAgent:           "AnyCrawl/1.0",
		KeepAlive:           true,
		DefaultTimeout:      30 * time.Second,
		MaxSessionRotations: 3,
		MaxRetries:          3,
		MaxPoolInstances:    4,
	}
}

// clampTimeout bounds a per-request timeout to spec §4.2/§5: 1s..600s.
func clampTimeout(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	if d < time.Second {
		return time.Second
	}
	if d > 600*time.Second {
		return 600 * time.Second
	}
	return d
}

// blockedStatusCodes are the origin responses treated as an active block
// rather than a generic non-2xx (spec §8 scenario 2: 403 -> error contains
// "request blocked").
var blockedStatusCodes = map[int]bool{401: true, 403: true, 429: true}

// httpErrorMessage builds the HTTP_ERROR message for a non-2xx response,
// distinguishing a known blocked status from a generic one.
func httpErrorMessage(status int) string {
	if blockedStatusCodes[status] {
		return fmt.Sprintf("request blocked: %d", status)
	}
	return fmt.Sprintf("non-2xx response: %d", status)
}
