package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/pkg/failure"
	"github.com/rohmanhakim/test-redirection/pkg/retry"
)

// curl exit codes that map to a specific cause
const (
	curlExitCouldNotResolveHost = 6
	curlExitCouldNotConnect     = 7
	curlExitTimeout             = 28
	curlExitTooManyRedirects    = 47
)

// CurlResolver delegates redirect following to a curl process.
// The process is started without a shell; arguments are passed verbatim.
type CurlResolver struct {
	metadataSink metadata.MetadataSink
	binary       string
	timeout      time.Duration
	maxRedirects int
	retryParam   retry.RetryParam
}

// NewCurlResolver uses binary, or "curl" from PATH when binary is empty.
func NewCurlResolver(
	metadataSink metadata.MetadataSink,
	binary string,
	timeout time.Duration,
	maxRedirects int,
	retryParam retry.RetryParam,
) *CurlResolver {
	if binary == "" {
		binary = "curl"
	}
	return &CurlResolver{
		metadataSink: metadataSink,
		binary:       binary,
		timeout:      timeout,
		maxRedirects: maxRedirects,
		retryParam:   retryParam,
	}
}

func (c *CurlResolver) Resolve(ctx context.Context, param ResolveParam) (string, *ResolveError) {
	callerMethod := "CurlResolver.Resolve"

	final, attempts, err := resolveWithRetry(ctx, c.retryParam, func() (string, failure.ClassifiedError) {
		final, err := c.run(ctx, param)
		if err != nil {
			return "", err
		}
		return final, nil
	})
	if err != nil {
		recordResolveError(c.metadataSink, callerMethod, param, attempts, err)
		return "", err
	}
	return final, nil
}

func (c *CurlResolver) run(ctx context.Context, param ResolveParam) (string, *ResolveError) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, c.args(param)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimSpace(stdout.String())
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return "", &ResolveError{
			Message:   fmt.Sprintf("could not start %s: %v", c.binary, err),
			Retryable: false,
			Cause:     ErrCauseCommandFailed,
			Partial:   out,
		}
	}

	code := exitErr.ExitCode()
	message := fmt.Sprintf("%s exited with code %d", c.binary, code)
	if detail := strings.TrimSpace(stderr.String()); detail != "" {
		message += ": " + detail
	}

	switch code {
	case curlExitTooManyRedirects:
		return "", &ResolveError{Message: message, Retryable: false, Cause: ErrCauseTooManyRedirects, Partial: out}
	case curlExitCouldNotResolveHost, curlExitCouldNotConnect, curlExitTimeout:
		return "", &ResolveError{Message: message, Retryable: true, Cause: ErrCauseNetworkFailure, Partial: out}
	default:
		return "", &ResolveError{Message: message, Retryable: false, Cause: ErrCauseCommandFailed, Partial: out}
	}
}

// args mirrors: curl -o /dev/null -sL -k -w %{url_effective} -X METHOD -I URL
func (c *CurlResolver) args(param ResolveParam) []string {
	args := []string{
		"-o", "/dev/null",
		"-sL",
		"-k",
		"-w", "%{url_effective}",
		"-X", param.Method(),
		"-I",
		"--max-redirs", strconv.Itoa(c.maxRedirects),
	}
	if c.timeout > 0 {
		args = append(args, "--max-time", strconv.FormatFloat(c.timeout.Seconds(), 'f', -1, 64))
	}
	if param.Credentials() != "" {
		args = append(args, "-u", param.Credentials())
	}
	return append(args, param.Target())
}
