package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// pool manages a fixed set of chromedp browser contexts for one engine
// variant, handed out round-robin (generalized from the teacher's
// ChromeDPPool, which this mirrors instance-for-instance).
type pool struct {
	mu       sync.Mutex
	browsers []context.Context
	cancels  []context.CancelFunc
	index    int
	logger   arbor.ILogger
	profile  Profile
	cfg      Config
}

func newPool(cfg Config, profile Profile, logger arbor.ILogger) (*pool, error) {
	p := &pool{logger: logger, profile: profile, cfg: cfg}

	size := cfg.MaxPoolInstances
	if size <= 0 {
		size = 1
	}

	var lastErr error
	for i := 0; i < size; i++ {
		if err := p.addInstance(); err != nil {
			lastErr = err
			p.logger.Warn().Err(err).Int("browser_index", i).Msg("failed to start browser instance")
			continue
		}
	}
	if len(p.browsers) == 0 {
		return nil, fmt.Errorf("engine: failed to start any browser instance for profile %s: %w", profile.ChromeVersion, lastErr)
	}
	return p, nil
}

func (p *pool) addInstance() error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("ignore-certificate-errors", p.cfg.IgnoreSSLError),
		chromedp.UserAgent(p.profile.UserAgent),
		chromedp.WindowSize(int(p.profile.ViewportW), int(p.profile.ViewportH)),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return err
	}

	p.browsers = append(p.browsers, browserCtx)
	p.cancels = append(p.cancels, func() {
		browserCancel()
		allocCancel()
	})
	return nil
}

// acquire returns a pooled browser context via round-robin allocation.
func (p *pool) acquire() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.index % len(p.browsers)
	p.index = (p.index + 1) % len(p.browsers)
	return p.browsers[idx]
}

func (p *pool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cancel := range p.cancels {
		cancel()
	}
	p.browsers = nil
	p.cancels = nil
	return nil
}
