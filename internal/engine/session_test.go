package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotationPolicyNonRetryableNeverRetries(t *testing.T) {
	p := newRotationPolicy(DefaultConfig())
	assert.False(t, p.shouldRetry(0, false))
}

func TestRotationPolicyCapsAtMaxRetries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 3
	cfg.MaxSessionRotations = 3
	p := newRotationPolicy(cfg)

	assert.True(t, p.shouldRetry(0, true))
	assert.True(t, p.shouldRetry(1, true))
	assert.False(t, p.shouldRetry(2, true))
}
