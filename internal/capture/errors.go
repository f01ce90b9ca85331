package capture

import (
	"errors"
	"fmt"
)

// ErrTimeout is wrapped by Page implementations when a bounded wait for an
// element expires.
var ErrTimeout = errors.New("timeout exceeded")

// Kind classifies the outcome of a capture run.
type Kind int

const (
	KindOK Kind = iota
	KindNavigation
	KindLocatorTimeout
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNavigation:
		return "navigation_error"
	case KindLocatorTimeout:
		return "locator_timeout"
	case KindUnexpected:
		return "unexpected_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Step names a point in the capture sequence.
type Step string

const (
	StepPrepare    Step = "prepare"
	StepLaunch     Step = "launch"
	StepNavigate   Step = "navigate"
	StepBaseline   Step = "baseline_screenshot"
	StepClick      Step = "click_trigger"
	StepWaitMarker Step = "wait_marker"
	StepLocalized  Step = "localized_screenshot"
)

// StepError is the failure of one step of the sequence.
type StepError struct {
	Kind Kind
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// classify builds a StepError, promoting wrapped ErrTimeout to a locator timeout.
func classify(step Step, err error) *StepError {
	kind := KindUnexpected
	switch {
	case step == StepNavigate:
		kind = KindNavigation
	case errors.Is(err, ErrTimeout):
		kind = KindLocatorTimeout
	}
	return &StepError{Kind: kind, Step: step, Err: err}
}
