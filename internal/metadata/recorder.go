package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Resolution outcomes per case
- Error observations from every pipeline stage
- Final run stats

Determinism guarantees:
 - Metadata does not affect control flow
 - Jitter is seed-controlled

Metadata is write-only.
No component may read metadata to influence scheduling or classification.
*/

/*
Recorder writes structured run events to a zerolog logger.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are written in the order they reach the logger.
- No ordering across concurrently running cases is guaranteed.
*/
type Recorder struct {
	log zerolog.Logger
}

func NewRecorder(log zerolog.Logger) *Recorder {
	return &Recorder{
		log: log,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	event := r.log.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Stringer("cause", cause)
	for _, attr := range attrs {
		event = event.Str(string(attr.Key), attr.Value)
	}
	event.Msg(details)
}

func (r *Recorder) RecordResolve(
	from string,
	observed string,
	status string,
	duration time.Duration,
) {
	r.appendResolve(ResolveEvent{
		from:     from,
		observed: observed,
		status:   status,
		duration: duration,
	})
}

func (r *Recorder) appendResolve(e ResolveEvent) {
	r.log.Debug().
		Str("from", e.from).
		Str("observed", e.observed).
		Str("status", e.status).
		Dur("duration", e.duration).
		Msg("case settled")
}

// RecordRunStart records the loaded redirect source before any case runs.
func (r *Recorder) RecordRunStart(source string, digest string, cases int) {
	r.log.Info().
		Str("source", source).
		Str("digest", digest).
		Int("cases", cases).
		Msg("run started")
}

// RecordReportWritten records where the run report landed and the hash of
// its content.
func (r *Recorder) RecordReportWritten(path string, contentHash string) {
	r.log.Info().
		Str("write_path", path).
		Str("content_hash", contentHash).
		Msg("report written")
}

/*
RecordFinalRunStats records a terminal, derived summary of a completed run.

Contract:
  - MUST be called exactly once per run.
  - MUST be called only after every case settled, or after a fatal abort.
  - The stats MUST be derived from aggregator output,
    not accumulated incrementally via the recorder.
*/
func (r *Recorder) RecordFinalRunStats(
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	r.appendStats(runStats{
		total:      total,
		passed:     passed,
		failed:     failed,
		durationMs: duration.Milliseconds(),
	})
}

func (r *Recorder) appendStats(s runStats) {
	r.log.Info().
		Int("total", s.total).
		Int("passed", s.passed).
		Int("failed", s.failed).
		Int64("duration_ms", s.durationMs).
		Msg("run finished")
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordResolve(
		from string,
		observed string,
		status string,
		duration time.Duration,
	)
}

// RunFinalizer brackets a run with its start and final stats.
type RunFinalizer interface {
	RecordRunStart(source string, digest string, cases int)

	RecordReportWritten(path string, contentHash string)

	RecordFinalRunStats(
		total int,
		passed int,
		failed int,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink and RunFinalizer but does nothing.
// Callers (or tests) decide whether to inject a Recorder or a NoopSink.

type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordResolve(
	from string,
	observed string,
	status string,
	duration time.Duration,
) {
}

func (n *NoopSink) RecordRunStart(source string, digest string, cases int) {
}

func (n *NoopSink) RecordReportWritten(path string, contentHash string) {
}

func (n *NoopSink) RecordFinalRunStats(
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
}
