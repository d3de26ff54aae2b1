package interfaces

import (
	"context"
	"time"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// EngineName identifies one of the three C2 backends.
type EngineName string

const (
	EngineStatic   EngineName = "static"
	EngineBrowserA EngineName = "browserA"
	EngineBrowserB EngineName = "browserB"
)

// NavigationOutcome is the tagged result returned from navigation hooks,
// replacing exceptions-as-control-flow for the "crawl limit reached" signal
// (spec §9): it is information for the caller, not a failure.
type NavigationOutcome struct {
	Abort  bool
	Reason string // e.g. "crawl_limit_reached"; empty when Abort is false
}

// Proceed is the zero-value NavigationOutcome: continue normally.
var Proceed = NavigationOutcome{}

// Abort builds a NavigationOutcome signalling an intentional, non-failure stop.
func Abort(reason string) NavigationOutcome {
	return NavigationOutcome{Abort: true, Reason: reason}
}

// FetchResponse is the normalized response surface every engine variant fills
// in, regardless of whether it came from an HTTP round trip or a browser
// navigation.
type FetchResponse struct {
	StatusCode int
	Headers    map[string]string
	FinalURL   string
}

// EngineContext is the sealed capability variant described in spec §9,
// replacing duck-typed dispatch ("does this have .page?", "does it have
// .body?") with an explicit tag the extractor switches on. Exactly one of
// Static/Browser is non-nil.
type EngineContext struct {
	Request  *models.EngineRequest
	Response FetchResponse

	Static  *StaticContext
	Browser *BrowserContext
}

// IsBrowser reports whether this context came from a headless-browser engine.
func (c *EngineContext) IsBrowser() bool { return c.Browser != nil }

// StaticContext is the capability surface of the no-JS HTML engine: the
// response body is already fully buffered.
type StaticContext struct {
	Body []byte
}

// BrowserContext is the capability surface shared by both headless engines.
// PageContent/Screenshot are late-bound closures so the adapter can defer the
// CDP round trip until a format actually needs it.
type BrowserContext struct {
	PageContent func(ctx context.Context) (string, error)
	Screenshot  func(ctx context.Context, fullPage bool) ([]byte, error)
	SaveSnapshot func(ctx context.Context, label string) error
}

// EngineErrorKind is the adapter-level error taxonomy from spec §4.2/§7.
type EngineErrorKind string

const (
	ErrHTTPError         EngineErrorKind = "HTTP_ERROR"
	ErrNavigationTimeout EngineErrorKind = "NAVIGATION_TIMEOUT"
	ErrProxyError        EngineErrorKind = "PROXY_ERROR"
	ErrBrowserError      EngineErrorKind = "BROWSER_ERROR"
)

// ProxyErrorSubkind further classifies ErrProxyError per spec §7, to decide
// whether a retry via session rotation is warranted.
type ProxyErrorSubkind string

const (
	ProxyConnectionFailed  ProxyErrorSubkind = "PROXY_CONNECTION_FAILED"
	TunnelConnectionFailed ProxyErrorSubkind = "TUNNEL_CONNECTION_FAILED"
	ProxyAuthFailed        ProxyErrorSubkind = "PROXY_AUTH_FAILED"
	SocksConnectionFailed  ProxyErrorSubkind = "SOCKS_CONNECTION_FAILED"
)

// Retryable reports whether this proxy error subkind should trigger session
// rotation and retry (spec §4.2: "Retry only for transient proxy/tunnel/socks
// errors; otherwise give up").
func (k ProxyErrorSubkind) Retryable() bool {
	switch k {
	case ProxyConnectionFailed, TunnelConnectionFailed, SocksConnectionFailed:
		return true
	default:
		return false
	}
}

// EngineError wraps one of the four adapter-level error kinds.
type EngineError struct {
	Kind       EngineErrorKind
	StatusCode int
	ProxyKind  ProxyErrorSubkind
	Message    string
	Cause      error
}

func (e *EngineError) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *EngineError) Unwrap() error { return e.Cause }

// Engine is the common contract all three C2 backends implement (spec §4.2):
// fetch, headlessRender, captureScreenshot collapsed into one Run call that
// returns an EngineContext the rest of the pipeline can branch on.
type Engine interface {
	Name() EngineName
	Run(ctx context.Context, req *models.EngineRequest, sel ProxySelection, timeout time.Duration) (*EngineContext, error)
	Close() error
}
