package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// Browser is the headless-engine variant shared by browserA and browserB
// (spec §4.2). Both run on chromedp; they are distinguished by their
// Profile (UA/viewport/Chrome version) and by browserA's HTTP-auth
// interception hook.
type Browser struct {
	name         interfaces.EngineName
	pool         *pool
	cfg          Config
	logger       arbor.ILogger
	rotation     rotationPolicy
	interceptAuth bool
}

// NewBrowserA builds the HTTP-auth-intercepting, Windows-profile variant.
func NewBrowserA(cfg Config, logger arbor.ILogger) (*Browser, error) {
	p, err := newPool(cfg, ProfileA, logger)
	if err != nil {
		return nil, err
	}
	return &Browser{name: interfaces.EngineBrowserA, pool: p, cfg: cfg, logger: logger, rotation: newRotationPolicy(cfg), interceptAuth: true}, nil
}

// NewBrowserB builds the macOS-profile variant without auth interception.
func NewBrowserB(cfg Config, logger arbor.ILogger) (*Browser, error) {
	p, err := newPool(cfg, ProfileB, logger)
	if err != nil {
		return nil, err
	}
	return &Browser{name: interfaces.EngineBrowserB, pool: p, cfg: cfg, logger: logger, rotation: newRotationPolicy(cfg)}, nil
}

func (b *Browser) Name() interfaces.EngineName { return b.name }

func (b *Browser) Close() error { return b.pool.close() }

// Run navigates to req.URL, rotating the pooled session on retryable proxy
// errors up to the configured maximum (spec §4.2).
func (b *Browser) Run(ctx context.Context, req *models.EngineRequest, sel interfaces.ProxySelection, timeout time.Duration) (*interfaces.EngineContext, error) {
	timeout = clampTimeout(timeout, b.cfg.DefaultTimeout)

	var lastErr error
	for attempt := 0; ; attempt++ {
		ec, err := b.attempt(ctx, req, sel, timeout)
		if err == nil {
			return ec, nil
		}
		lastErr = err

		engErr, ok := err.(*interfaces.EngineError)
		retryable := ok && engErr.Kind == interfaces.ErrProxyError && engErr.ProxyKind.Retryable()
		if !b.rotation.shouldRetry(attempt, retryable) {
			return ec, lastErr
		}
		b.logger.Debug().Str("engine", string(b.name)).Int("attempt", attempt+1).Str("url", req.URL).Msg("rotating session and retrying")
	}
}

func (b *Browser) attempt(ctx context.Context, req *models.EngineRequest, sel interfaces.ProxySelection, timeout time.Duration) (*interfaces.EngineContext, error) {
	// A pooled chromedp instance's proxy is pinned at allocator launch, not
	// per-navigation, so a per-request tier change can only be honored by
	// routing that request through the static engine instead; browser
	// engines log the mismatch rather than silently ignoring it.
	if sel.URL != "" {
		b.logger.Debug().Str("engine", string(b.name)).Str("url", req.URL).Msg("browser engine proxy is pool-pinned; per-request selection is advisory only")
	}

	browserCtx := b.pool.acquire()
	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	defer tabCancel()

	navCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	if err := enableAdBlock(navCtx); err != nil {
		b.logger.Warn().Err(err).Msg("failed to install ad-block hook")
	}

	if b.interceptAuth {
		if err := b.installAuthCancelHook(navCtx); err != nil {
			b.logger.Warn().Err(err).Msg("failed to install auth-cancel hook")
		}
	}

	var (
		statusCode int
		headers    = map[string]string{}
	)
	chromedp.ListenTarget(navCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			statusCode = int(e.Response.Status)
			for k, v := range e.Response.Headers {
				headers[k] = fmt.Sprintf("%v", v)
			}
		}
	})

	err := chromedp.Run(navCtx,
		chromedp.Evaluate(fmt.Sprintf(stealthJS, b.poolProfilePlatform()), nil),
		chromedp.Navigate(req.URL),
	)
	if navCtx.Err() == context.DeadlineExceeded {
		return nil, &interfaces.EngineError{Kind: interfaces.ErrNavigationTimeout, Message: "navigation timed out after " + timeout.String()}
	}
	if err != nil {
		if subkind, retryable := classifyProxyError(err); retryable || subkind != "" {
			return nil, &interfaces.EngineError{Kind: interfaces.ErrProxyError, ProxyKind: subkind, Message: err.Error(), Cause: err}
		}
		return nil, &interfaces.EngineError{Kind: interfaces.ErrBrowserError, Message: err.Error(), Cause: err}
	}

	browserCtxCopy := navCtx

	ec := &interfaces.EngineContext{
		Request:  req,
		Response: interfaces.FetchResponse{StatusCode: statusCode, Headers: headers, FinalURL: req.URL},
		Browser: &interfaces.BrowserContext{
			PageContent: func(ctx context.Context) (string, error) {
				var html string
				if err := chromedp.Run(browserCtxCopy, chromedp.OuterHTML("html", &html)); err != nil {
					return "", err
				}
				return html, nil
			},
			Screenshot: func(ctx context.Context, fullPage bool) ([]byte, error) {
				return b.captureScreenshot(browserCtxCopy, fullPage)
			},
			SaveSnapshot: func(ctx context.Context, label string) error {
				return nil
			},
		},
	}

	if statusCode >= 400 {
		return ec, &interfaces.EngineError{Kind: interfaces.ErrHTTPError, StatusCode: statusCode, Message: httpErrorMessage(statusCode)}
	}
	return ec, nil
}

func (b *Browser) poolProfilePlatform() string {
	return b.pool.profile.Platform
}

// installAuthCancelHook intercepts HTTP-auth challenges and cancels them so
// the 401 page body is still captured (spec §4.2, browserA only).
func (b *Browser) installAuthCancelHook(ctx context.Context) error {
	if err := chromedp.Run(ctx, fetch.Enable().WithHandleAuthRequests(true)); err != nil {
		return err
	}
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventAuthRequired:
			go chromedp.Run(ctx, fetch.ContinueWithAuth(e.RequestID, &fetch.AuthChallengeResponse{
				Response: fetch.AuthChallengeResponseResponseCancelAuth,
			}))
		case *fetch.EventRequestPaused:
			go chromedp.Run(ctx, fetch.ContinueRequest(e.RequestID))
		}
	})
	return nil
}

// captureScreenshot takes a JPEG screenshot; for full-page capture it
// temporarily overrides the device metrics to the full document height
// (spec §4.7: "use browser CDP to override device metrics for full-page
// capture; on failure fall back to the engine default").
func (b *Browser) captureScreenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	jpeg := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(100).
			Do(ctx)
		return err
	})
	if !fullPage {
		err := chromedp.Run(ctx, jpeg)
		return buf, err
	}

	var width, height int64
	err := chromedp.Run(ctx,
		chromedp.EvaluateAsDevTools(`document.documentElement.scrollWidth`, &width),
		chromedp.EvaluateAsDevTools(`document.documentElement.scrollHeight`, &height),
	)
	if err != nil || width == 0 || height == 0 {
		fallbackErr := chromedp.Run(ctx, jpeg)
		return buf, fallbackErr
	}

	err = chromedp.Run(ctx,
		page.SetDeviceMetricsOverride(width, height, 1, false),
		jpeg,
		page.ClearDeviceMetricsOverride(),
	)
	if err != nil {
		fallbackErr := chromedp.Run(ctx, jpeg)
		return buf, fallbackErr
	}
	return buf, nil
}
