package capture

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/splashcheck/internal/common"
)

// Target describes the page under test.
type Target struct {
	URL             string
	Trigger         Locator
	Marker          Locator
	NavigateTimeout time.Duration
	MarkerTimeout   time.Duration
	ClickTimeout    time.Duration
}

// Result is everything a capture run produced.
type Result struct {
	RunID string
	URL   string

	// State is StateClosed once Run returns; Terminal is Verified or Failed.
	State    State
	Terminal State

	Kind Kind
	Err  error

	// ErrorScreenshotErr is set when the diagnostic screenshot could not be taken.
	ErrorScreenshotErr error
	CloseErr           error

	Artifacts []Artifact
	Console   []ConsoleEntry
	// Log holds this run's own log lines when the caller's logger keeps them.
	Log []string

	Started  time.Time
	Duration time.Duration
}

// OK reports whether the run reached the localized screenshot.
func (r *Result) OK() bool { return r.Kind == KindOK }

// Artifact returns the artifact captured for role, if any.
func (r *Result) Artifact(role Role) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Role == role {
			return a, true
		}
	}
	return Artifact{}, false
}

// Sequencer runs the splash capture sequence: navigate, baseline
// screenshot, click the language trigger, wait for the marker, localized
// screenshot.
type Sequencer struct {
	target Target
	output Output
	open   Opener
	logger *common.Logger
}

// NewSequencer creates a sequencer. A nil logger discards output.
func NewSequencer(target Target, output Output, open Opener, logger *common.Logger) *Sequencer {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Sequencer{target: target, output: output, open: open, logger: logger}
}

// Run executes the sequence once. It never returns an error: failures are
// recorded on the Result, followed by a best-effort error screenshot. The
// page is closed exactly once on every path.
func (s *Sequencer) Run(ctx context.Context) *Result {
	res := &Result{
		RunID:   uuid.NewString(),
		URL:     s.target.URL,
		State:   StateNotStarted,
		Started: time.Now(),
	}
	logger := s.logger.WithRunID(res.RunID)
	defer func() { res.Duration = time.Since(res.Started) }()

	logger.Info().Str("url", s.target.URL).Str("out", s.output.Dir).Msg("capture started")

	if err := s.output.prepare(); err != nil {
		s.fail(res, logger, &StepError{Kind: KindUnexpected, Step: StepPrepare, Err: err})
		res.State = StateClosed
		return res
	}

	console := NewConsoleLog()
	page, err := s.open(ctx, console)
	if err != nil {
		s.fail(res, logger, &StepError{Kind: KindUnexpected, Step: StepLaunch, Err: err})
		res.State = StateClosed
		return res
	}

	defer func() {
		if err := page.Close(); err != nil {
			res.CloseErr = err
			logger.Warn().Err(err).Msg("browser close reported an error")
		}
		res.State = StateClosed
		res.Console = console.Entries()
		logger.Info().
			Str("outcome", res.Kind.String()).
			Int("console_entries", len(res.Console)).
			Msg("capture finished")
	}()

	if stepErr := s.sequence(page, res, logger); stepErr != nil {
		s.fail(res, logger, stepErr)
		s.captureError(page, res, logger)
		return res
	}

	res.State = StateVerified
	res.Terminal = StateVerified
	return res
}

func (s *Sequencer) sequence(page Page, res *Result, logger *common.Logger) *StepError {
	if err := page.Navigate(s.target.URL, s.target.NavigateTimeout); err != nil {
		return classify(StepNavigate, err)
	}
	res.State = StateNavigated

	if err := s.capture(page, res, RoleBaseline, logger); err != nil {
		return classify(StepBaseline, err)
	}
	res.State = StateBaselineCaptured

	if err := page.Click(s.target.Trigger, s.target.ClickTimeout); err != nil {
		return classify(StepClick, err)
	}
	res.State = StateInteracted
	logger.Debug().Str("trigger", s.target.Trigger.String()).Msg("trigger clicked")

	if err := page.WaitVisible(s.target.Marker, s.target.MarkerTimeout); err != nil {
		return classify(StepWaitMarker, err)
	}

	if err := s.capture(page, res, RoleLocalized, logger); err != nil {
		return classify(StepLocalized, err)
	}
	return nil
}

func (s *Sequencer) capture(page Page, res *Result, role Role, logger *common.Logger) error {
	data, err := page.Screenshot()
	if err != nil {
		return err
	}
	return s.persist(res, role, data, logger)
}

func (s *Sequencer) persist(res *Result, role Role, data []byte, logger *common.Logger) error {
	a, err := s.output.write(role, data)
	if err != nil {
		return err
	}
	res.Artifacts = append(res.Artifacts, a)
	logger.Info().Str("role", string(role)).Str("path", a.Path).Int("bytes", a.Size).Msg("screenshot written")
	return nil
}

// captureError takes the diagnostic screenshot, which must not depend on the
// session deadline that may have caused the failure.
func (s *Sequencer) captureError(page Page, res *Result, logger *common.Logger) {
	data, err := page.DiagnosticScreenshot()
	if err == nil {
		err = s.persist(res, RoleError, data, logger)
	}
	if err != nil {
		res.ErrorScreenshotErr = err
		logger.Warn().Err(err).Msg("error screenshot failed")
	}
}

func (s *Sequencer) fail(res *Result, logger *common.Logger, err *StepError) {
	res.Kind = err.Kind
	res.Err = err
	res.State = StateFailed
	res.Terminal = StateFailed
	logger.Error().
		Str("step", string(err.Step)).
		Str("kind", err.Kind.String()).
		Err(err.Err).
		Msg("capture failed")
}
