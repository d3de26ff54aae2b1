package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

func TestMimeAllowed(t *testing.T) {
	assert.True(t, mimeAllowed(""))
	assert.True(t, mimeAllowed("text/html; charset=utf-8"))
	assert.True(t, mimeAllowed("application/xhtml+xml"))
	assert.False(t, mimeAllowed("application/pdf"))
	assert.False(t, mimeAllowed("image/png"))
}

func TestClassifyProxyError(t *testing.T) {
	cases := []struct {
		msg      string
		wantKind interfaces.ProxyErrorSubkind
		wantOK   bool
	}{
		{"proxyconnect tcp: dial failed", interfaces.ProxyConnectionFailed, true},
		{"tunnel connection failed: 502", interfaces.TunnelConnectionFailed, true},
		{"socks connect error", interfaces.SocksConnectionFailed, true},
		{"407 proxy authentication required", interfaces.ProxyAuthFailed, false},
		{"connection reset by peer", "", false},
	}
	for _, c := range cases {
		kind, ok := classifyProxyError(errors.New(c.msg))
		assert.Equal(t, c.wantKind, kind, c.msg)
		assert.Equal(t, c.wantOK, ok, c.msg)
	}
}

func TestClampTimeoutBounds(t *testing.T) {
	fallback := 30 * time.Second
	assert.Equal(t, fallback, clampTimeout(0, fallback))
	assert.Equal(t, time.Second, clampTimeout(1, fallback))
	assert.Equal(t, 600*time.Second, clampTimeout(1000*time.Second, fallback))
}
