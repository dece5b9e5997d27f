package runner

import (
	"time"

	"github.com/rohmanhakim/test-redirection/internal/diff"
	"github.com/rohmanhakim/test-redirection/internal/queue"
)

// State is the lifecycle of one case.
//
//	Pending -> Resolving -> {Success, Mismatch, LoopError}
type State int

const (
	StatePending State = iota
	StateResolving
	StateSuccess
	StateMismatch
	StateLoopError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolving:
		return "resolving"
	case StateSuccess:
		return "success"
	case StateMismatch:
		return "mismatch"
	case StateLoopError:
		return "loop_error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateMismatch || s == StateLoopError
}

// canAdvance reports whether from -> to is a legal transition.
func canAdvance(from State, to State) bool {
	switch from {
	case StatePending:
		return to == StateResolving
	case StateResolving:
		return to.Terminal()
	default:
		return false
	}
}

// Status is the classified outcome of a case.
type Status int

const (
	StatusSuccess Status = iota
	StatusMismatch
	StatusLoopError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusMismatch:
		return "mismatch"
	case StatusLoopError:
		return "loop_error"
	default:
		return "unknown"
	}
}

func (s Status) State() State {
	switch s {
	case StatusSuccess:
		return StateSuccess
	case StatusMismatch:
		return StateMismatch
	default:
		return StateLoopError
	}
}

// Case is a prepared redirect: hosts rewritten, overrides resolved.
type Case struct {
	// Position in the redirect source, 0-based.
	Position    int
	From        string
	To          string
	Method      string
	IgnoreQuery bool
	state       State
}

func (c Case) State() State {
	return c.state
}

// TestResult is emitted once per case, right after classification.
type TestResult struct {
	Index    int
	Total    int
	Position int
	Status   Status
	From     string
	To       string
	Observed string
	Diff     *diff.Diff
	// Err carries the resolver failure of a LoopError.
	Err      string
	Duration time.Duration
}

func (r TestResult) Passed() bool {
	return r.Status == StatusSuccess
}

// Sequencer hands out completion sequence numbers.
type Sequencer interface {
	Complete() queue.Progress
}

// EventSink consumes per-case results as they are classified.
type EventSink interface {
	RecordResult(result TestResult)
}
