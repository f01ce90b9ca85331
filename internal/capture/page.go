package capture

import (
	"context"
	"time"
)

// Page is the browser surface the sequencer drives. Each call blocks until
// the browser operation completes.
type Page interface {
	// Navigate loads url and waits up to timeout for the load event.
	Navigate(url string, timeout time.Duration) error
	Screenshot() ([]byte, error)
	// DiagnosticScreenshot captures the page for a failure report. It must
	// still work once the session deadline has expired.
	DiagnosticScreenshot() ([]byte, error)
	// Click waits up to timeout for the element, then clicks it.
	Click(loc Locator, timeout time.Duration) error
	// WaitVisible waits up to timeout for the element to exist and be visible.
	WaitVisible(loc Locator, timeout time.Duration) error
	// Close releases the page and its browser. Calls after the first are no-ops.
	Close() error
}

// Opener acquires a Page whose console messages are appended to log.
type Opener func(ctx context.Context, log *ConsoleLog) (Page, error)
