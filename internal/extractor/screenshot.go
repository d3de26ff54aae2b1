package extractor

import (
	"context"
	"fmt"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

// captureScreenshot delegates to the browser context's late-bound capture
// closure; non-browser (static) engine contexts can never satisfy a
// screenshot format. The caller logs the error and omits the format from
// the record.
func captureScreenshot(ctx context.Context, ec *interfaces.EngineContext, fullPage bool) ([]byte, error) {
	if ec.Browser == nil || ec.Browser.Screenshot == nil {
		return nil, fmt.Errorf("screenshot requires a browser engine context")
	}
	return ec.Browser.Screenshot(ctx, fullPage)
}
