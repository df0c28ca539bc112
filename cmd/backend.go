package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/lance13c/auditor/internal/browser"
	"github.com/lance13c/auditor/internal/config"
	"github.com/lance13c/auditor/internal/logging"
)

// openBackend builds the protocol backend the config selects. The returned
// close function is always safe to call.
func openBackend(ctx context.Context, cfg *config.Config) (browser.Backend, func(), error) {
	noop := func() {}
	b := cfg.Browser

	switch b.Backend {
	case config.BackendSimulated:
		site := browser.DefaultSite(cfg.Target.BaseURL)
		if b.SiteFile != "" {
			var err error
			if site, err = browser.LoadSite(projectPath(b.SiteFile)); err != nil {
				return nil, noop, err
			}
		}
		logging.Info("using simulated site with %d pages", len(site.Pages))
		return browser.NewSimulatedBackend(site), noop, nil

	case config.BackendChrome:
		chrome, err := browser.NewChromeBackend(browser.ChromeOptions{
			Headless: b.Headless,
			Timeout:  b.Timeout,
			ExecPath: b.ExecPath,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("failed to start Chrome: %w", err)
		}
		return chrome, func() { chrome.Close() }, nil

	case config.BackendDevTools:
		wsURL := b.DebuggerURL
		if !strings.HasPrefix(wsURL, "ws") {
			var err error
			if wsURL, err = browser.ResolveDebuggerURL(ctx, b.DebuggerURL); err != nil {
				return nil, noop, fmt.Errorf("failed to find a debuggable page at %s: %w", b.DebuggerURL, err)
			}
		}
		dt, err := browser.DialDevTools(ctx, wsURL, b.Timeout)
		if err != nil {
			return nil, noop, err
		}
		return dt, func() { dt.Close() }, nil

	case config.BackendCommand:
		binary := b.Command
		if binary == "" {
			binary = browser.DefaultAutomationBinary
		}
		return browser.CommandBackend{Binary: binary, Timeout: b.Timeout}, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown browser backend %q", b.Backend)
}
