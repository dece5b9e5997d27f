package metadata

import (
	"time"
)

type ResolveEvent struct {
	from     string
	observed string
	status   string
	duration time.Duration
}

/*
runStats
  - Terminal, derived summary of a completed run
  - Contains only aggregate counts and durations
  - Computed by the scheduler after every case settled
  - Recorded exactly once
*/
type runStats struct {
	total      int
	passed     int
	failed     int
	durationMs int64
}

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, reporting).

Rules:
  - ErrorCause MUST NOT influence control flow.
  - It must never be used to derive retry, continuation, or abort decisions.
  - Pipeline packages MAY map their local errors to ErrorCause,
    but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.

# CauseNetworkFailure

  - Transport failure while following a redirect chain.
  - DNS resolution failures, connection resets, timeouts.

# CauseRedirectLoop

  - The resolver did not terminate: a URL repeated in the chain,
    or the chain exceeded the hop limit.

# CauseCommandFailure

  - An external resolver process exited unsuccessfully.

# CauseConfigInvalid

  - The redirect source or options could not be used.
  - Unreadable files, malformed rows, rewrite hosts that break a URL.

# CauseStorageFailure

  - The run report could not be written to disk.

# CauseInvariantViolation

  - A system-level invariant was violated, e.g. a worker panicked.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseRedirectLoop
	CauseCommandFailure
	CauseConfigInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseRedirectLoop:
		return "redirect_loop"
	case CauseCommandFailure:
		return "command_failure"
	case CauseConfigInvalid:
		return "config_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL       AttributeKey = "url"
	AttrHost      AttributeKey = "host"
	AttrMethod    AttributeKey = "method"
	AttrObserved  AttributeKey = "observed"
	AttrAttempt   AttributeKey = "attempt"
	AttrFile      AttributeKey = "file"
	AttrIndex     AttributeKey = "index"
	AttrWritePath AttributeKey = "write_path"
)
