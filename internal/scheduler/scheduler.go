package scheduler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rohmanhakim/test-redirection/internal/aggregator"
	"github.com/rohmanhakim/test-redirection/internal/config"
	"github.com/rohmanhakim/test-redirection/internal/logger"
	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/internal/queue"
	"github.com/rohmanhakim/test-redirection/internal/redirect"
	"github.com/rohmanhakim/test-redirection/internal/report"
	"github.com/rohmanhakim/test-redirection/internal/resolver"
	"github.com/rohmanhakim/test-redirection/internal/runner"
	"github.com/rohmanhakim/test-redirection/internal/storage"
	"github.com/rohmanhakim/test-redirection/pkg/limiter"
	"github.com/rohmanhakim/test-redirection/pkg/retry"
	"github.com/rohmanhakim/test-redirection/pkg/timeutil"
)

/*
Scheduler is the sole control-plane authority of a run.

  - Every case is prepared before any case is submitted. A host rewrite
    failure aborts the run before a single request is made.
  - All cases are submitted to the queue at once; the queue alone bounds
    concurrency.
  - Every submitted case is awaited. One failing case never stops others.
  - Pipeline stages classify failures but never decide continuation.

Metadata emission is observational only and MUST NOT influence
scheduling, classification, or the exit status.
*/
type Scheduler struct {
	cfg          config.Config
	runID        string
	metadataSink metadata.MetadataSink
	runFinalizer metadata.RunFinalizer
	resolver     resolver.Resolver
	reporter     Reporter
	storageSink  storage.Sink
}

// NewScheduler wires the production stack. Results are rendered to out,
// structured logs go to stderr and to the configured log file.
func NewScheduler(cfg config.Config, out io.Writer) (Scheduler, error) {
	runID := uuid.NewString()

	level, err := logger.ParseLevel(cfg.LogLevel())
	if err != nil {
		return Scheduler{}, err
	}
	log, err := logger.NewBuilder().
		WithLevel(level).
		WithFormat(logger.ParseFormat(cfg.LogFormat())).
		WithNoColor(cfg.NoColor()).
		WithFile(cfg.LogFile()).
		WithField("run_id", runID).
		Build()
	if err != nil {
		return Scheduler{}, err
	}

	recorder := metadata.NewRecorder(log)
	console := report.NewConsole(out, report.Options{
		Verbose:    cfg.Verbose(),
		OnlyErrors: cfg.OnlyErrors(),
		NoColor:    cfg.NoColor(),
	})

	s := NewSchedulerWithDeps(
		cfg,
		newResolver(cfg, recorder),
		console,
		storage.NewLocalSink(recorder),
		recorder,
		recorder,
	)
	s.runID = runID
	return s, nil
}

// NewSchedulerWithDeps creates a Scheduler with injected dependencies for testing.
func NewSchedulerWithDeps(
	cfg config.Config,
	res resolver.Resolver,
	reporter Reporter,
	storageSink storage.Sink,
	metadataSink metadata.MetadataSink,
	runFinalizer metadata.RunFinalizer,
) Scheduler {
	return Scheduler{
		cfg:          cfg,
		runID:        uuid.NewString(),
		metadataSink: metadataSink,
		runFinalizer: runFinalizer,
		resolver:     res,
		reporter:     reporter,
		storageSink:  storageSink,
	}
}

func newResolver(cfg config.Config, sink metadata.MetadataSink) resolver.Resolver {
	retryParam := retry.NewRetryParam(
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)

	if cfg.ResolverKind() == config.ResolverCurl {
		return resolver.NewCurlResolver(sink, "", cfg.Timeout(), cfg.MaxRedirects(), retryParam)
	}
	return resolver.NewHTTPResolver(sink, cfg.Timeout(), cfg.MaxRedirects(), retryParam)
}

func (s *Scheduler) RunID() string {
	return s.runID
}

// Execute loads the redirect source at path and runs every case in it.
// The returned error is non-nil when the run could not start or its report
// could not be written; failed cases are reported through the summary.
func (s *Scheduler) Execute(ctx context.Context, path string) (Execution, error) {
	runStartTime := time.Now()

	var summary aggregator.Summary

	// Ensure final stats are recorded even when the run aborts
	defer func() {
		s.runFinalizer.RecordFinalRunStats(
			summary.Total,
			summary.Passed,
			summary.Failed,
			time.Since(runStartTime),
		)
	}()

	// 1. Load the redirect source
	source, loadErr := redirect.Load(path, s.cfg.CSVDelimiter())
	if loadErr != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"redirect",
			"redirect.Load",
			metadata.CauseConfigInvalid,
			loadErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrFile, path),
			},
		)
		s.reporter.RecordFatal(loadErr)
		return Execution{}, loadErr
	}
	s.runFinalizer.RecordRunStart(source.Path, source.Digest, len(source.Redirects))

	throttle := limiter.NewThrottle(s.cfg.Delay(), s.cfg.Jitter(), s.cfg.RandomSeed())
	r := runner.NewRunner(s.cfg, s.resolver, throttle, s.reporter, s.metadataSink)

	// 2. Prepare every case; rewrite failures are fatal
	cases := make([]runner.Case, 0, len(source.Redirects))
	for i, rc := range source.Redirects {
		c, err := r.Prepare(i, rc)
		if err != nil {
			s.reporter.RecordFatal(err)
			return Execution{}, err
		}
		cases = append(cases, c)
	}

	// 3. Submit all cases at once
	q, err := queue.New[runner.TestResult](s.cfg.Concurrency())
	if err != nil {
		s.reporter.RecordFatal(err)
		return Execution{}, fmt.Errorf("scheduler: %w", err)
	}

	tasks := make([]queue.Task[runner.TestResult], len(cases))
	for i, c := range cases {
		tasks[i] = func(ctx context.Context, ticket queue.Ticket) (runner.TestResult, error) {
			return r.Run(ctx, c, ticket), nil
		}
	}
	handles := q.Submit(ctx, tasks)

	// 4. Await every case and summarize
	summary = aggregator.New(s.reporter).Collect(handles)
	s.recordUnsettledCases(handles)

	execution := Execution{
		RunID:   s.runID,
		Source:  source,
		Summary: summary,
	}

	// 5. Persist the report when asked to
	if path := s.cfg.ReportFile(); path != "" {
		report := storage.NewReport(s.runID, source, summary, time.Now())
		result, err := s.storageSink.Write(path, report)
		if err != nil {
			s.reporter.RecordFatal(err)
			return execution, err
		}
		s.runFinalizer.RecordReportWritten(result.Path(), result.ContentHash())
	}

	return execution, nil
}

// recordUnsettledCases reports tasks that ended without a result.
func (s *Scheduler) recordUnsettledCases(handles []*queue.Handle[runner.TestResult]) {
	for _, h := range handles {
		if _, err := h.Wait(); err != nil {
			progress := h.Progress()
			s.metadataSink.RecordError(
				time.Now(),
				"scheduler",
				"Scheduler.Execute",
				metadata.CauseInvariantViolation,
				err.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrIndex, fmt.Sprintf("%d/%d", progress.Index, progress.Total)),
				},
			)
		}
	}
}
