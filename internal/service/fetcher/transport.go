package fetcher

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/oshokin/release-packager/internal/logger"
)

const (
	// DefaultRetries is how many times a failed GET is repeated.
	DefaultRetries = 5
	// DefaultBackoff is the delay unit between attempts; attempt n waits n units.
	DefaultBackoff = time.Second
)

// retryStatuses are the server errors worth repeating.
var retryStatuses = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// NewRetryClient returns a client that repeats GET and HEAD requests failing
// with a transport error or one of retryStatuses. Other methods go out once.
// Redirects are handed back to the outer client, so callers keep control
// over which hops carry credentials.
func NewRetryClient(ctx context.Context, base http.RoundTripper, retries int, backoff time.Duration) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}

	retrying := retryablehttp.NewClient()
	retrying.HTTPClient = &http.Client{
		Transport: base,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	retrying.RetryMax = max(retries, 0)
	retrying.RetryWaitMin = backoff
	retrying.RetryWaitMax = backoff * time.Duration(max(retries, 1))
	retrying.Backoff = linearBackoff
	retrying.CheckRetry = retryPolicy
	retrying.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retrying.Logger = retryLogger{ctx: logger.WithName(ctx, "http")}

	return &http.Client{
		Transport: &idempotentTransport{
			retrying: &retryablehttp.RoundTripper{Client: retrying},
			direct:   base,
		},
	}
}

// idempotentTransport routes only requests that are safe to repeat through retries.
type idempotentTransport struct {
	retrying http.RoundTripper
	direct   http.RoundTripper
}

func (t *idempotentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		return t.retrying.RoundTrip(req)
	}

	return t.direct.RoundTrip(req)
}

func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	if err != nil {
		return true, nil
	}

	return slices.Contains(retryStatuses, resp.StatusCode), nil
}

// linearBackoff waits one more unit per attempt.
func linearBackoff(unit, _ time.Duration, attempt int, _ *http.Response) time.Duration {
	return unit * time.Duration(attempt+1)
}

// retryLogger sends retry diagnostics to the context logger.
type retryLogger struct {
	ctx context.Context //nolint:containedctx // Carries the logger fields for retry callbacks.
}

func (l retryLogger) Error(msg string, kvs ...any) {
	logger.WarnKV(l.ctx, msg, kvs...)
}

func (l retryLogger) Info(msg string, kvs ...any) {
	logger.InfoKV(l.ctx, msg, kvs...)
}

func (l retryLogger) Debug(msg string, kvs ...any) {
	logger.DebugKV(l.ctx, msg, kvs...)
}

func (l retryLogger) Warn(msg string, kvs ...any) {
	logger.WarnKV(l.ctx, msg, kvs...)
}
