package webrender

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Browser is the process-wide headless Chrome handle. It connects lazily and
// exactly once; every request then opens its own page on the shared session.
// Rod automatically downloads Chromium on first run if none is found.
type Browser struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowser creates an unconnected browser handle. Call EnsureLaunched (or
// let the first render do it) to connect.
func NewBrowser() *Browser {
	return &Browser{}
}

// EnsureLaunched connects to the browser if not already connected. It is
// idempotent and safe for concurrent callers; a failed launch leaves the
// handle unconnected so a later call can retry.
func (b *Browser) EnsureLaunched() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return nil
	}

	// Configure launcher
	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b.browser = browser
	b.launcher = l
	return nil
}

// Session returns the connected browser session. It fails fast when the
// browser has not been launched instead of allowing implicit nil access.
func (b *Browser) Session() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil, ErrBrowserNotLaunched
	}
	return b.browser, nil
}

// Close releases browser resources. The handle can be relaunched afterwards.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	// Best-effort cleanup of the Chrome process tree; Close on the CDP
	// session does not always reap a wedged browser.
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher = nil
	}
	b.browser = nil
	return err
}
