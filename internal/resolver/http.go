package resolver

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rohmanhakim/test-redirection/internal/metadata"
	"github.com/rohmanhakim/test-redirection/pkg/failure"
	"github.com/rohmanhakim/test-redirection/pkg/retry"
)

// HTTPResolver follows redirects hop by hop with net/http.
//
// Semantics
//
//   - TLS certificates are not verified
//   - Response bodies are never read
//   - Basic auth is sent to the starting host only
//   - A URL seen twice in one chain is a redirect loop
//   - More than maxRedirects hops is too many redirects
type HTTPResolver struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	timeout      time.Duration
	maxRedirects int
	retryParam   retry.RetryParam
}

func NewHTTPResolver(
	metadataSink metadata.MetadataSink,
	timeout time.Duration,
	maxRedirects int,
	retryParam retry.RetryParam,
) *HTTPResolver {
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}

	return &HTTPResolver{
		metadataSink: metadataSink,
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// hops are followed manually
				return http.ErrUseLastResponse
			},
		},
		timeout:      timeout,
		maxRedirects: maxRedirects,
		retryParam:   retryParam,
	}
}

func (h *HTTPResolver) Resolve(ctx context.Context, param ResolveParam) (string, *ResolveError) {
	callerMethod := "HTTPResolver.Resolve"

	final, attempts, err := resolveWithRetry(ctx, h.retryParam, func() (string, failure.ClassifiedError) {
		final, err := h.follow(ctx, param)
		if err != nil {
			return "", err
		}
		return final, nil
	})
	if err != nil {
		recordResolveError(h.metadataSink, callerMethod, param, attempts, err)
		return "", err
	}
	return final, nil
}

func (h *HTTPResolver) follow(ctx context.Context, param ResolveParam) (string, *ResolveError) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start, err := url.Parse(param.Target())
	if err != nil || start.Scheme == "" || start.Host == "" {
		return "", &ResolveError{
			Message:   fmt.Sprintf("not an absolute URL: %q", param.Target()),
			Retryable: false,
			Cause:     ErrCauseInvalidRequest,
			Partial:   param.Target(),
		}
	}

	current := start
	seen := make(map[string]struct{})
	for redirects := 0; ; redirects++ {
		key := current.String()
		if _, ok := seen[key]; ok {
			return "", &ResolveError{
				Message:   fmt.Sprintf("%s was reached twice", key),
				Retryable: false,
				Cause:     ErrCauseRedirectLoop,
				Partial:   key,
			}
		}
		seen[key] = struct{}{}

		next, err := h.hop(ctx, param, start, current)
		if err != nil {
			return "", err
		}
		if next == nil {
			return key, nil
		}

		if redirects >= h.maxRedirects {
			return "", &ResolveError{
				Message:   fmt.Sprintf("maximum (%d) redirects followed", h.maxRedirects),
				Retryable: false,
				Cause:     ErrCauseTooManyRedirects,
				Partial:   key,
			}
		}
		current = next
	}
}

// hop issues one request and returns the next URL, or nil when current is final.
func (h *HTTPResolver) hop(ctx context.Context, param ResolveParam, start *url.URL, current *url.URL) (*url.URL, *ResolveError) {
	req, err := http.NewRequestWithContext(ctx, param.Method(), current.String(), nil)
	if err != nil {
		return nil, &ResolveError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseInvalidRequest,
			Partial:   current.String(),
		}
	}

	if user, password, ok := param.basicAuth(); ok && current.Host == start.Host {
		req.SetBasicAuth(user, password)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		// transport errors are retryable
		return nil, &ResolveError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
			Partial:   current.String(),
		}
	}
	resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return nil, nil
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return nil, nil
	}
	next, err := current.Parse(location)
	if err != nil {
		// an unusable Location ends the chain where it is
		return nil, nil
	}
	return next, nil
}
