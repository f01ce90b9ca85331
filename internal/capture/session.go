package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// BrowserOptions configures the headless browser behind a Session.
type BrowserOptions struct {
	Headless  bool
	NoSandbox bool
	ExecPath  string
	Width     int
	Height    int
	// Timeout bounds the whole session; zero means no bound.
	Timeout time.Duration
}

// diagnosticTimeout bounds the error screenshot, which runs outside the
// session deadline.
const diagnosticTimeout = 10 * time.Second

// Session bundles a browser process and one open page.
type Session struct {
	ctx        context.Context
	browserCtx context.Context
	cancel     context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// NewSession launches the browser, registers the console listener and opens
// a blank page. The browser is released if any of that fails.
func NewSession(parent context.Context, opts BrowserOptions, log *ConsoleLog) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", opts.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.Width > 0 && opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	ctx, timeoutCancel := browserCtx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		ctx, timeoutCancel = context.WithTimeout(browserCtx, opts.Timeout)
	}

	s := &Session{
		ctx:        ctx,
		browserCtx: browserCtx,
		cancel: func() {
			timeoutCancel()
			browserCancel()
			allocCancel()
		},
	}

	if log != nil {
		listenConsole(browserCtx, log)
	}

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return s, nil
}

// ChromeOpener returns an Opener backed by a chromedp Session.
func ChromeOpener(opts BrowserOptions) Opener {
	return func(ctx context.Context, log *ConsoleLog) (Page, error) {
		return NewSession(ctx, opts, log)
	}
}

// listenConsole appends every console API call to log. The callback runs on
// chromedp's event goroutine and must not block.
func listenConsole(ctx context.Context, log *ConsoleLog) {
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*runtime.EventConsoleAPICalled); ok {
			log.Append(entryFromEvent(e))
		}
	})
}

// Navigate loads url, bounded by timeout.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	err := s.runBounded(timeout, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, s.timeoutErr(err, "not loaded", timeout))
	}
	return nil
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot() ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(s.ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// DiagnosticScreenshot captures the viewport on a context derived from the
// browser rather than the session, so an expired session deadline does not
// prevent the error screenshot.
func (s *Session) DiagnosticScreenshot() ([]byte, error) {
	ctx, cancel := context.WithTimeout(s.browserCtx, diagnosticTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("error screenshot: %w", err)
	}
	return buf, nil
}

// Click waits up to timeout for loc to be visible, then clicks it.
func (s *Session) Click(loc Locator, timeout time.Duration) error {
	err := s.runBounded(timeout, chromedp.Click(loc.Expr, queryOption(loc)))
	if err != nil {
		return fmt.Errorf("click %s: %w", loc, s.timeoutErr(err, "not clickable", timeout))
	}
	return nil
}

// WaitVisible waits up to timeout for loc to exist and be visible.
func (s *Session) WaitVisible(loc Locator, timeout time.Duration) error {
	err := s.runBounded(timeout, chromedp.WaitVisible(loc.Expr, queryOption(loc)))
	if err != nil {
		return fmt.Errorf("wait for %s: %w", loc, s.timeoutErr(err, "not visible", timeout))
	}
	return nil
}

// Close shuts the browser down gracefully and releases every context.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("close browser: %w", err)
		}
		s.cancel()
	})
	return s.closeErr
}

func (s *Session) runBounded(timeout time.Duration, action chromedp.Action) error {
	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, action)
}

// timeoutErr maps an expired per-step deadline to ErrTimeout. Expiry of the
// session-wide deadline is reported as such.
func (s *Session) timeoutErr(err error, what string, timeout time.Duration) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("browser session deadline exceeded: %w", err)
	}
	return fmt.Errorf("%s after %s: %w", what, timeout, ErrTimeout)
}

func queryOption(loc Locator) chromedp.QueryOption {
	if loc.Kind == XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
