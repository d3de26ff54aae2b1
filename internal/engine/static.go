package engine

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// allowedMIMEPrefixes is the static engine's MIME allowlist (spec §4.2:
// "no JS execution, allowed MIME types {html, xhtml, plain}").
var allowedMIMEPrefixes = []string{"text/html", "application/xhtml+xml", "text/plain"}

// Static is the no-JS HTML engine (C2), built on gocolly/colly.
type Static struct {
	base   *colly.Collector
	cfg    Config
	logger arbor.ILogger
}

// NewStatic builds the static engine's base collector, cloned per request so
// handler state never leaks across concurrent fetches.
func NewStatic(cfg Config, logger arbor.ILogger) *Static {
	c := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(cfg.DefaultTimeout)

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.IgnoreSSLError},
		DisableKeepAlives: !cfg.KeepAlive,
	}
	c.WithTransport(transport)

	return &Static{base: c, cfg: cfg, logger: logger}
}

func (s *Static) Name() interfaces.EngineName { return interfaces.EngineStatic }

func (s *Static) Close() error { return nil }

// Run fetches req.URL through a fresh clone of the base collector, routed
// through the given proxy selection, and returns a StaticContext carrying
// the buffered body (spec §4.2/§4.7 step 1).
func (s *Static) Run(ctx context.Context, req *models.EngineRequest, sel interfaces.ProxySelection, timeout time.Duration) (*interfaces.EngineContext, error) {
	timeout = clampTimeout(timeout, s.cfg.DefaultTimeout)
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := s.base.Clone()
	if sel.URL != "" {
		proxyURL, err := url.Parse(sel.URL)
		if err != nil {
			return nil, &interfaces.EngineError{Kind: interfaces.ErrProxyError, Message: err.Error(), Cause: err}
		}
		c.WithTransport(&http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: s.cfg.IgnoreSSLError},
		})
	}

	var (
		statusCode int
		headers    = map[string]string{}
		body       []byte
		fetchErr   error
		done       int32
	)

	c.OnRequest(func(r *colly.Request) {
		if reqCtx.Err() != nil {
			r.Abort()
			return
		}
	})
	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
		if r.Headers != nil {
			for k, v := range *r.Headers {
				if len(v) > 0 {
					headers[k] = v[0]
				}
			}
		}
		atomic.StoreInt32(&done, 1)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil {
			statusCode = r.StatusCode
		}
		atomic.StoreInt32(&done, 1)
	})

	if err := c.Visit(req.URL); err != nil {
		fetchErr = err
	}
	c.Wait()

	if reqCtx.Err() == context.DeadlineExceeded {
		return nil, &interfaces.EngineError{Kind: interfaces.ErrNavigationTimeout, Message: "static fetch timed out"}
	}
	if fetchErr != nil {
		if subkind, ok := classifyProxyError(fetchErr); ok {
			return nil, &interfaces.EngineError{Kind: interfaces.ErrProxyError, ProxyKind: subkind, Message: fetchErr.Error(), Cause: fetchErr}
		}
		if statusCode == 0 {
			return nil, &interfaces.EngineError{Kind: interfaces.ErrBrowserError, Message: fetchErr.Error(), Cause: fetchErr}
		}
	}
	if statusCode >= 400 {
		// Best-effort: still hand back the body so C7 can extract it
		// (spec §4.7: "the adapter still attempts extraction once").
		return &interfaces.EngineContext{
			Request:  req,
			Response: interfaces.FetchResponse{StatusCode: statusCode, Headers: headers, FinalURL: req.URL},
			Static:   &interfaces.StaticContext{Body: body},
		}, &interfaces.EngineError{Kind: interfaces.ErrHTTPError, StatusCode: statusCode, Message: httpErrorMessage(statusCode)}
	}
	if !mimeAllowed(headers["Content-Type"]) {
		return nil, &interfaces.EngineError{Kind: interfaces.ErrHTTPError, StatusCode: statusCode, Message: "unsupported content type: " + headers["Content-Type"]}
	}

	return &interfaces.EngineContext{
		Request:  req,
		Response: interfaces.FetchResponse{StatusCode: statusCode, Headers: headers, FinalURL: req.URL},
		Static:   &interfaces.StaticContext{Body: body},
	}, nil
}

func mimeAllowed(contentType string) bool {
	if contentType == "" {
		return true
	}
	lower := strings.ToLower(contentType)
	for _, prefix := range allowedMIMEPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// classifyProxyError maps a transport error to one of the four proxy
// subkinds from spec §7, based on substring matching against the
// underlying dial error — the same heuristic the browser engines use. The
// bool reports whether the subkind is retryable; a proxy auth failure is
// classified but reported as not retryable.
func classifyProxyError(err error) (interfaces.ProxyErrorSubkind, bool) {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "proxyconnect") || strings.Contains(msg, "proxy connection"):
		return interfaces.ProxyConnectionFailed, true
	case strings.Contains(msg, "tunnel"):
		return interfaces.TunnelConnectionFailed, true
	case strings.Contains(msg, "socks"):
		return interfaces.SocksConnectionFailed, true
	case strings.Contains(msg, "407") || strings.Contains(msg, "proxy authentication"):
		return interfaces.ProxyAuthFailed, false
	default:
		return "", false
	}
}
