package runner_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rohmanhakim/test-redirection/internal/config"
	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/internal/queue"
	"github.com/rohmanhakim/test-redirection/internal/resolver"
	"github.com/rohmanhakim/test-redirection/internal/runner"
	"github.com/rohmanhakim/test-redirection/pkg/limiter"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type resolverMock struct {
	mock.Mock
}

func (r *resolverMock) Resolve(ctx context.Context, param resolver.ResolveParam) (string, *resolver.ResolveError) {
	args := r.Called(ctx, param)
	var err *resolver.ResolveError
	if e := args.Get(1); e != nil {
		err = e.(*resolver.ResolveError)
	}
	return args.String(0), err
}

// staticResolver maps a starting URL to a final URL.
type staticResolver map[string]string

func (s staticResolver) Resolve(ctx context.Context, param resolver.ResolveParam) (string, *resolver.ResolveError) {
	return s[param.Target()], nil
}

type eventRecorder struct {
	mu      sync.Mutex
	results []runner.TestResult
	notify  chan runner.TestResult
}

func (e *eventRecorder) RecordResult(result runner.TestResult) {
	e.mu.Lock()
	e.results = append(e.results, result)
	e.mu.Unlock()
	if e.notify != nil {
		e.notify <- result
	}
}

func (e *eventRecorder) all() []runner.TestResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]runner.TestResult, len(e.results))
	copy(out, e.results)
	return out
}

type fixedSequencer struct {
	progress queue.Progress
}

func (f fixedSequencer) Complete() queue.Progress {
	return f.progress
}

func one() runner.Sequencer {
	return fixedSequencer{progress: queue.Progress{Index: 1, Total: 1}}
}

func buildConfig(t *testing.T, builder *config.Config) config.Config {
	t.Helper()
	cfg, err := builder.WithDelay(0).Build()
	require.NoError(t, err)
	return cfg
}

func newRunner(cfg config.Config, res resolver.Resolver, events runner.EventSink) *runner.Runner {
	return runner.NewRunner(cfg, res, limiter.NewThrottle(cfg.Delay(), 0, 1), events, &metadata.NoopSink{})
}

func boolPtr(b bool) *bool {
	return &b
}
