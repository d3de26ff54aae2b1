package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

func TestClampConcurrencyBounds(t *testing.T) {
	assert.Equal(t, DefaultConcurrency, clampConcurrency(0))
	assert.Equal(t, MinConcurrency, clampConcurrency(1))
	assert.Equal(t, MaxConcurrency, clampConcurrency(1000))
	assert.Equal(t, 25, clampConcurrency(25))
}

func TestScrapeTimeoutUsesOptionsOrFallback(t *testing.T) {
	req := &models.EngineRequest{UserData: models.UserData{Options: models.ScrapeOptions{Timeout: 5}}}
	assert.Equal(t, 5*time.Second, scrapeTimeout(req))

	req2 := &models.EngineRequest{}
	assert.Equal(t, 30*time.Second, scrapeTimeout(req2))
}

func TestClassifyOutcomeProxyErrorIsBlocked(t *testing.T) {
	err := &interfaces.EngineError{Kind: interfaces.ErrProxyError, ProxyKind: interfaces.ProxyConnectionFailed}
	assert.Equal(t, interfaces.ProxyOutcomeBlocked, classifyOutcome(err))
}

func TestClassifyOutcomeOtherErrorsAreGeneric(t *testing.T) {
	assert.Equal(t, interfaces.ProxyOutcomeError, classifyOutcome(errors.New("boom")))
	assert.Equal(t, interfaces.ProxyOutcomeError, classifyOutcome(&interfaces.EngineError{Kind: interfaces.ErrNavigationTimeout}))
}

func TestIsRetryableNavigationTimeout(t *testing.T) {
	assert.True(t, isRetryable(&interfaces.EngineError{Kind: interfaces.ErrNavigationTimeout}))
}

func TestIsRetryableTransientProxyError(t *testing.T) {
	assert.True(t, isRetryable(&interfaces.EngineError{Kind: interfaces.ErrProxyError, ProxyKind: interfaces.ProxyConnectionFailed}))
}

func TestIsRetryableRejectsDeterministicErrors(t *testing.T) {
	assert.False(t, isRetryable(&interfaces.EngineError{Kind: interfaces.ErrHTTPError, StatusCode: 403}))
	assert.False(t, isRetryable(&interfaces.EngineError{Kind: interfaces.ErrBrowserError}))
	assert.False(t, isRetryable(&interfaces.EngineError{Kind: interfaces.ErrProxyError, ProxyKind: interfaces.ProxyAuthFailed}))
	assert.False(t, isRetryable(errors.New("plain error")))
}
