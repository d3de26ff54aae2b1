package engine

import (
	"context"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// adBlockDomains is the built-in blocklist browser engines abort requests
// against (spec §4.2: "Ad-blocking hook on browser engines: abort requests
// whose URL contains any domain in a built-in blocklist").
var adBlockDomains = []string{
	"doubleclick.net",
	"googlesyndication.com",
	"googletagmanager.com",
	"google-analytics.com",
	"adservice.google.com",
	"facebook.net",
	"connect.facebook.net",
	"ads.yahoo.com",
	"adnxs.com",
	"taboola.com",
	"outbrain.com",
	"scorecardresearch.com",
	"criteo.com",
	"amazon-adsystem.com",
}

// enableAdBlock installs the blocklist via the CDP Network domain's
// setBlockedURLs, which aborts matching requests before they hit the wire.
func enableAdBlock(ctx context.Context) error {
	patterns := make([]string, 0, len(adBlockDomains))
	for _, d := range adBlockDomains {
		patterns = append(patterns, "*"+d+"*")
	}
	return chromedp.Run(ctx,
		network.Enable(),
		network.SetBlockedURLS(patterns),
	)
}
