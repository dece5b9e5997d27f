package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/config"
	"github.com/rohmanhakim/test-redirection/internal/diff"
	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/internal/redirect"
	"github.com/rohmanhakim/test-redirection/internal/resolver"
	"github.com/rohmanhakim/test-redirection/pkg/failure"
	"github.com/rohmanhakim/test-redirection/pkg/limiter"
	"github.com/rohmanhakim/test-redirection/pkg/urlutil"
)

/*
Runner drives one case through its states.

Pending:   hosts are rewritten (Prepare). Failure is fatal for the run.
Resolving: the resolver follows the chain; the call holds the queue slot.
Terminal:  observed and expected are normalized and compared verbatim.

Resolver failures are classified as LoopError and never escape Run.
After classification the result is numbered, emitted, and the throttle
delay is served before Run returns.
*/
type Runner struct {
	cfg          config.Config
	resolver     resolver.Resolver
	throttle     *limiter.Throttle
	events       EventSink
	metadataSink metadata.MetadataSink
}

func NewRunner(
	cfg config.Config,
	res resolver.Resolver,
	throttle *limiter.Throttle,
	events EventSink,
	metadataSink metadata.MetadataSink,
) *Runner {
	return &Runner{
		cfg:          cfg,
		resolver:     res,
		throttle:     throttle,
		events:       events,
		metadataSink: metadataSink,
	}
}

// Prepare applies host rewrites and resolves per-case overrides.
func (r *Runner) Prepare(position int, rc redirect.RedirectionConfig) (Case, failure.ClassifiedError) {
	from, err := r.rewrite(position, "from", rc.From, r.cfg.FromHost())
	if err != nil {
		return Case{}, err
	}
	to, err := r.rewrite(position, "to", rc.To, r.cfg.ToHost())
	if err != nil {
		return Case{}, err
	}

	method := rc.Method
	if method == "" {
		method = r.cfg.Method()
	}

	ignoreQuery := r.cfg.IgnoreQueryParameters()
	if rc.IgnoreQueryParameters != nil {
		ignoreQuery = *rc.IgnoreQueryParameters
	}

	return Case{
		Position:    position,
		From:        from,
		To:          to,
		Method:      strings.ToUpper(method),
		IgnoreQuery: ignoreQuery,
		state:       StatePending,
	}, nil
}

func (r *Runner) rewrite(position int, field string, rawURL string, host string) (string, *RewriteError) {
	if host == "" {
		return rawURL, nil
	}

	rewritten, err := urlutil.ReplaceHost(rawURL, host)
	if err != nil {
		rewriteErr := &RewriteError{
			Message:   fmt.Sprintf("cannot rewrite %s URL %q with host %q: %v", field, rawURL, host, err),
			Retryable: false,
			Cause:     ErrCauseRewriteFailed,
			Field:     field,
			URL:       rawURL,
			Host:      host,
			Position:  position,
		}
		r.metadataSink.RecordError(
			time.Now(),
			"runner",
			"Runner.Prepare",
			mapRewriteErrorToMetadataCause(rewriteErr),
			rewriteErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, rawURL),
				metadata.NewAttr(metadata.AttrHost, host),
			},
		)
		return "", rewriteErr
	}
	return rewritten, nil
}

// Run resolves, classifies and emits c. It always returns a result.
func (r *Runner) Run(ctx context.Context, c Case, seq Sequencer) TestResult {
	start := time.Now()
	r.advance(&c, StateResolving)

	observed, resolveErr := r.resolver.Resolve(ctx, resolver.NewResolveParam(c.From, c.Method, r.cfg.User()))

	result := classify(c, observed, resolveErr)
	r.advance(&c, result.Status.State())
	result.Duration = time.Since(start)

	progress := seq.Complete()
	result.Index = progress.Index
	result.Total = progress.Total

	r.events.RecordResult(result)
	r.metadataSink.RecordResolve(c.From, result.Observed, result.Status.String(), result.Duration)

	// the slot is held through the delay for every outcome
	_ = r.throttle.Wait(ctx)

	return result
}

func (r *Runner) advance(c *Case, to State) {
	if !canAdvance(c.state, to) {
		panic(fmt.Sprintf("runner: illegal transition %s -> %s", c.state, to))
	}
	c.state = to
}

// classify compares verbatim after optional query stripping. Only
// surrounding whitespace of the resolver output is trimmed.
func classify(c Case, observed string, resolveErr *resolver.ResolveError) TestResult {
	result := TestResult{
		Position: c.Position,
		From:     c.From,
		To:       c.To,
	}

	if resolveErr != nil {
		result.Status = StatusLoopError
		result.Observed = strings.TrimSpace(resolveErr.Partial)
		result.Err = resolveErr.Error()
		return result
	}

	result.Observed = strings.TrimSpace(observed)

	expected, actual := c.To, result.Observed
	if c.IgnoreQuery {
		expected = urlutil.StripQuery(expected)
		actual = urlutil.StripQuery(actual)
	}

	if expected == actual {
		result.Status = StatusSuccess
		return result
	}

	result.Status = StatusMismatch
	result.Diff = diff.Unified(expected, actual)
	return result
}
