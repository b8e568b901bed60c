package internal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HeaderTransport is a custom RoundTripper that adds default headers to requests
type HeaderTransport struct {
	Base    http.RoundTripper
	Headers http.Header
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	for key, values := range t.Headers {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// HTTPClientOptions configures the outbound client used for price lookups
type HTTPClientOptions struct {
	Retries int
	Timeout time.Duration
	RPS     int
	Headers http.Header
	Logger  *slog.Logger
}

// NewHTTPClient returns a standard *http.Client that retries failed requests,
// spaces attempts to honor RPS and adds Headers to every request.
func NewHTTPClient(opts HTTPClientOptions) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil
	if opts.Logger != nil {
		retryClient.Logger = opts.Logger
	}

	if len(opts.Headers) > 0 {
		retryClient.HTTPClient.Transport = &HeaderTransport{
			Base:    retryClient.HTTPClient.Transport,
			Headers: opts.Headers,
		}
	}

	if rps := opts.RPS; rps > 0 {
		retryClient.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
			// Ensure we wait at least 1/rps between requests
			minWait := time.Second / time.Duration(rps)
			if min < minWait {
				min = minWait
			}
			return retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
		}
	}

	return retryClient.StandardClient()
}
