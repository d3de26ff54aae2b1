package engine

// Profile pins a browser engine variant to a distinct Chrome major version
// and viewport so browserA and browserB present genuinely different
// capability/identity surfaces, even though both run on chromedp
// (spec §4.2: "Fingerprinting: browser engines use a fingerprint generator
// pinned to a current major version").
type Profile struct {
	UserAgent     string
	ChromeVersion string
	ViewportW     int64
	ViewportH     int64
	Platform      string
}

// ProfileA is browserA's identity: the latest stable Chrome on Windows.
var ProfileA = Profile{
	UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	ChromeVersion: "131",
	ViewportW:     1920,
	ViewportH:     1080,
	Platform:      "Win32",
}

// ProfileB is browserB's identity: a macOS build one major version behind,
// giving the two engines distinguishable TLS/JS fingerprints.
var ProfileB = Profile{
	UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	ChromeVersion: "130",
	ViewportW:     1440,
	ViewportH:     900,
	Platform:      "MacIntel",
}

// stealthJS is injected before any page script runs, masking the automation
// flags headless Chrome otherwise exposes to navigator.
const stealthJS = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'platform', { get: () => '%s' });
window.chrome = window.chrome || { runtime: {} };
`
