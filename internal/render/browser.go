package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Browser renders pages with headless Chromium driven by Playwright.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser

	userAgent  string
	navTimeout time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

type browserOptions struct {
	headless      bool
	installDriver bool
	userAgent     string
	navTimeout    time.Duration
	logger        *slog.Logger
}

// BrowserOption configures a Browser.
type BrowserOption func(*browserOptions)

// WithHeadless controls whether Chromium runs without a window.
func WithHeadless(headless bool) BrowserOption {
	return func(o *browserOptions) {
		o.headless = headless
	}
}

// WithInstallDriver downloads the Playwright driver and Chromium before
// launching, when they are not present yet.
func WithInstallDriver(install bool) BrowserOption {
	return func(o *browserOptions) {
		o.installDriver = install
	}
}

// WithBrowserUserAgent overrides the browser User-Agent.
func WithBrowserUserAgent(ua string) BrowserOption {
	return func(o *browserOptions) {
		o.userAgent = ua
	}
}

// WithNavigationTimeout bounds page navigation.
func WithNavigationTimeout(d time.Duration) BrowserOption {
	return func(o *browserOptions) {
		o.navTimeout = d
	}
}

// WithBrowserLogger sets the logger.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(o *browserOptions) {
		o.logger = logger
	}
}

// NewBrowser starts the Playwright driver and launches Chromium.
// When the launch fails, the driver that was already started is stopped
// before the error is returned.
func NewBrowser(opts ...BrowserOption) (*Browser, error) {
	o := browserOptions{
		headless:   true,
		navTimeout: 60 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	runOpts := &playwright.RunOptions{Browsers: []string{"chromium"}}
	if o.installDriver {
		o.logger.Info("installing playwright driver and chromium")
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("%w: install driver: %w", ErrLaunch, err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: start playwright: %w", ErrLaunch, err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(o.headless),
	})
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			o.logger.Warn("failed to stop playwright after launch failure", "error", stopErr)
		}
		return nil, fmt.Errorf("%w: launch chromium: %w", ErrLaunch, err)
	}

	o.logger.Debug("browser started", "headless", o.headless, "version", browser.Version())

	return &Browser{
		pw:         pw,
		browser:    browser,
		userAgent:  o.userAgent,
		navTimeout: o.navTimeout,
		logger:     o.logger,
	}, nil
}

// Open implements Renderer. Navigation waits for network idle.
func (b *Browser) Open(ctx context.Context, url string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	var pageOpts playwright.BrowserNewPageOptions
	if b.userAgent != "" {
		pageOpts.UserAgent = playwright.String(b.userAgent)
	}
	page, err := b.browser.NewPage(pageOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: new page: %w", ErrNavigate, err)
	}

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(millis(b.navTimeout)),
	})
	if err != nil {
		b.closePage(page)
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigate, url, err)
	}
	if resp != nil && resp.Status() >= 400 {
		b.closePage(page)
		return nil, fmt.Errorf("%w: %s: %d", ErrStatus, url, resp.Status())
	}

	return &browserPage{page: page}, nil
}

func (b *Browser) closePage(page playwright.Page) {
	if err := page.Close(); err != nil {
		b.logger.Debug("failed to close page", "error", err)
	}
}

// Close implements Renderer. It closes Chromium and stops the driver.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()

		var errs []error
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
		b.closeErr = errors.Join(errs...)
		b.logger.Debug("browser closed")
	})
	return b.closeErr
}

// browserPage adapts a Playwright page to Page.
type browserPage struct {
	page playwright.Page
}

func (p *browserPage) Count(selector string) (int, error) {
	return p.page.Locator(selector).Count()
}

func (p *browserPage) ClickNth(selector string, n int, timeout time.Duration) error {
	return p.page.Locator(selector).Nth(n).Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(millis(timeout)),
	})
}

func (p *browserPage) WaitFor(selector string, timeout time.Duration) error {
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(timeout)),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s", ErrWaitTimeout, selector)
	}
	return err
}

func (p *browserPage) HTML() (string, error) {
	return p.page.Content()
}

func (p *browserPage) Close() error {
	return p.page.Close()
}

// millis converts a duration to Playwright's float milliseconds.
func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
