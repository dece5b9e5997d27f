package resolver_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/pkg/retry"
	"github.com/rohmanhakim/test-redirection/pkg/timeutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sinkMock struct {
	mock.Mock
}

func (s *sinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	s.Called(observedAt, packageName, action, cause, details, attrs)
}

func (s *sinkMock) RecordResolve(
	from string,
	observed string,
	status string,
	duration time.Duration,
) {
	s.Called(from, observed, status, duration)
}

func singleAttempt() retry.RetryParam {
	return retry.NewRetryParam(0, 1, 1, timeutil.NewBackoffParam(time.Millisecond, 2, 5*time.Millisecond))
}

func attempts(n int) retry.RetryParam {
	return retry.NewRetryParam(0, 1, n, timeutil.NewBackoffParam(time.Millisecond, 2, 5*time.Millisecond))
}

func attrValue(attrs []metadata.Attribute, key metadata.AttributeKey) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// fakeCurl writes a shell script that prints its last argument, stores all
// arguments in FAKE_CURL_ARGS when set and exits with FAKE_CURL_EXIT.
func fakeCurl(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake curl needs a POSIX shell")
	}
	script := `#!/bin/sh
for last; do :; done
if [ -n "$FAKE_CURL_ARGS" ]; then
  printf '%s\n' "$@" > "$FAKE_CURL_ARGS"
fi
printf '%s' "$last"
exit ${FAKE_CURL_EXIT:-0}
`
	path := filepath.Join(t.TempDir(), "curl")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}
