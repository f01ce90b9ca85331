package capture

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakePage records the calls the sequencer makes and fails on demand.
type fakePage struct {
	mu    sync.Mutex
	calls []string

	log *ConsoleLog

	// consoleOnNavigate is appended to the console log during Navigate.
	consoleOnNavigate []string

	navigateErr error
	clickErr    error
	waitErr     error
	closeErr    error
	// shotErrs[i] is returned by the i-th screenshot of either kind.
	shotErrs map[int]error
	// expireAfterWait makes regular screenshots fail after WaitVisible, as
	// they do once the session deadline has passed.
	expireAfterWait bool
	expired         bool

	navigateTimeout time.Duration

	shots  int
	closes int
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Navigate(url string, timeout time.Duration) error {
	p.record("navigate " + url)
	p.navigateTimeout = timeout
	for _, text := range p.consoleOnNavigate {
		p.log.Append(ConsoleEntry{Level: "log", Text: text})
	}
	return p.navigateErr
}

func (p *fakePage) Screenshot() ([]byte, error) {
	p.record("screenshot")
	if p.expired {
		return nil, context.DeadlineExceeded
	}
	return p.shot()
}

func (p *fakePage) DiagnosticScreenshot() ([]byte, error) {
	p.record("diagnostic screenshot")
	return p.shot()
}

func (p *fakePage) shot() ([]byte, error) {
	n := p.shots
	p.shots++
	if err := p.shotErrs[n]; err != nil {
		return nil, err
	}
	// Distinct content per screenshot.
	return []byte{0x89, 'P', 'N', 'G', byte(n)}, nil
}

func (p *fakePage) Click(loc Locator, timeout time.Duration) error {
	p.record("click " + loc.String())
	return p.clickErr
}

func (p *fakePage) WaitVisible(loc Locator, timeout time.Duration) error {
	p.record("wait " + loc.String())
	p.expired = p.expireAfterWait
	return p.waitErr
}

func (p *fakePage) Close() error {
	p.record("close")
	p.closes++
	return p.closeErr
}

func (p *fakePage) opener() Opener {
	return func(ctx context.Context, log *ConsoleLog) (Page, error) {
		p.log = log
		return p, nil
	}
}

func failingOpener(err error) Opener {
	return func(ctx context.Context, log *ConsoleLog) (Page, error) {
		return nil, err
	}
}

var errConnRefused = errors.New("page load error net::ERR_CONNECTION_REFUSED")
