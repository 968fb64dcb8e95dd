package cleanurl

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/getlantern/mtime"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent with redirect requests unless overridden.
const DefaultUserAgent = "cleanurl/1.0"

// RedirectorOptions configures an HTTPRedirector.
type RedirectorOptions struct {
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// Rate caps redirect requests per second. Zero means unlimited.
	Rate float64
	// UserAgent defaults to DefaultUserAgent.
	UserAgent string
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// HTTPRedirector resolves a redirect with a single GET that is never allowed
// to follow the response's location. Failures are returned as is; nothing is
// retried.
type HTTPRedirector struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPRedirector creates an HTTPRedirector.
func NewHTTPRedirector(opts RedirectorOptions) *HTTPRedirector {
	r := &HTTPRedirector{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent: opts.UserAgent,
	}
	if r.userAgent == "" {
		r.userAgent = DefaultUserAgent
	}
	if opts.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	return r
}

// Hop implements Redirector.
func (r *HTTPRedirector) Hop(ctx context.Context, u *url.URL) (Hop, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return Hop{}, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Hop{}, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	start := mtime.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return Hop{}, err
	}
	defer resp.Body.Close()
	// Drain a little so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	log.Debugf("Redirect request for %v answered %d in %v", redact(u.String()), resp.StatusCode, mtime.Now().Sub(start))
	return Hop{StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}, nil
}
