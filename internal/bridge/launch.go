package bridge

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

//go:embed wweb.js
var helperJS string

// DefaultURL is the web client entry point.
const DefaultURL = "https://web.whatsapp.com"

// LaunchConfig controls the browser instance backing a session.
type LaunchConfig struct {
	// BinPath overrides browser discovery with an explicit executable.
	BinPath string
	// Headless runs the browser without a window.
	Headless bool
	// ProxyURL routes browser traffic through a proxy.
	ProxyURL string
	// ProfileDir is the persistent user-data directory; pairing state
	// lives in it.
	ProfileDir string
	// URL overrides the page to open. Empty means DefaultURL.
	URL string
}

// Launch starts the controlled browser and opens the web client page. The
// returned browser owns the underlying process; closing it tears the page
// down too.
func Launch(cfg LaunchConfig, logger *zap.Logger) (*rod.Browser, *rod.Page, error) {
	l := launcher.New().
		UserDataDir(cfg.ProfileDir).
		Headless(cfg.Headless).
		Leakless(true)
	if cfg.BinPath != "" {
		l = l.Bin(cfg.BinPath)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	logger.Info("opening web client", zap.String("url", url))

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		_ = browser.Close()
		return nil, nil, fmt.Errorf("open page: %w", err)
	}
	return browser, page, nil
}

// InjectHelpers evaluates the helper layer on the page. The page must have
// finished loading first; the helpers resolve the client's internal module
// registry, which only exists after boot.
func (b *Bridge) InjectHelpers(ctx context.Context) error {
	if err := b.page.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("wait page load: %w", err)
	}
	if _, err := b.page.Context(ctx).Eval(helperJS); err != nil {
		return fmt.Errorf("inject helpers: %w", err)
	}
	return nil
}
