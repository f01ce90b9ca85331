package capture

// State tracks how far a capture run progressed.
//
//	NotStarted -> Navigated -> BaselineCaptured -> Interacted -> Verified|Failed -> Closed
type State int

const (
	StateNotStarted State = iota
	StateNavigated
	StateBaselineCaptured
	StateInteracted
	StateVerified
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateNavigated:
		return "navigated"
	case StateBaselineCaptured:
		return "baseline_captured"
	case StateInteracted:
		return "interacted"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
