// Package cleanurl removes tracking parameters from URLs using per-host
// matcher rules, resolving short-link redirects when a rule asks for it.
package cleanurl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/getlantern/golog"
)

var (
	log = golog.LoggerFor("cleanurl")
)

// Status classifies the result of cleaning a piece of text.
type Status uint8

const (
	// NotURL means the text is not an absolute URL with a host.
	NotURL Status = iota
	// Unchanged means the text is a URL that needed no cleaning.
	Unchanged
	// Cleaned means the text was rewritten; see Result.URL.
	Cleaned
)

func (s Status) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Cleaned:
		return "cleaned"
	default:
		return "not-url"
	}
}

// Result is the outcome of Clean.
type Result struct {
	Status Status
	// URL is the cleaned URL when Status is Cleaned.
	URL string
}

// Hop is the response to a single request that was not allowed to follow
// redirects.
type Hop struct {
	StatusCode int
	Location   string
}

// Redirector issues one request for u without following any redirect.
type Redirector interface {
	Hop(ctx context.Context, u *url.URL) (Hop, error)
}

// RedirectorFunc adapts a function to the Redirector interface.
type RedirectorFunc func(ctx context.Context, u *url.URL) (Hop, error)

// Hop calls f(ctx, u).
func (f RedirectorFunc) Hop(ctx context.Context, u *url.URL) (Hop, error) {
	return f(ctx, u)
}

// Cleaner applies a RuleSet to candidate text. It holds no mutable state and
// is safe for concurrent use.
type Cleaner struct {
	rules      *RuleSet
	redirector Redirector
}

// New creates a Cleaner. With a nil redirector, redirect requests end
// matching instead of being resolved.
func New(rules *RuleSet, redirector Redirector) *Cleaner {
	return &Cleaner{rules: rules, redirector: redirector}
}

// Clean removes tracking parameters from text. Text that is not an absolute
// URL with a host yields NotURL and no error. Matchers run in rule set order;
// each may rewrite the query, stop matching or ask for the URL's redirect to
// be resolved. At most one redirect is resolved per call, after which matching
// starts over on the redirect target. The only errors come from resolving that
// redirect.
func (c *Cleaner) Clean(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	current, ok := parseCandidate(text)
	if !ok {
		return Result{Status: NotURL}, nil
	}

	var cleaned string
	redirects := 0
matching:
	for {
		redirect := false
		for _, i := range c.rules.index.candidates(current.Hostname()) {
			m := &c.rules.matchers[i]
			if m.RequestsRedirect(current) {
				log.Debugf("%v: path of %v requests a redirect", m.Name, redact(current.String()))
				redirect = true
				break
			}
			outcome := m.Rewrite(current)
			if outcome.Modified {
				cleaned = current.String()
			}
			if outcome.Action == Redirect {
				redirect = true
				break
			}
			if outcome.Action == Stop {
				break matching
			}
		}
		if !redirect {
			break
		}
		if redirects > 0 {
			log.Debugf("Ignoring redirect request for %v, already followed one", redact(current.String()))
			break
		}
		redirects++

		next, err := c.follow(ctx, current)
		if err != nil {
			return Result{}, err
		}
		if next == nil {
			break
		}
		current = next
		cleaned = current.String()
	}

	if cleaned == "" || cleaned == text {
		return Result{Status: Unchanged}, nil
	}
	return Result{Status: Cleaned, URL: cleaned}, nil
}

// follow resolves a single redirect hop for u. It returns nil when there is
// nothing to follow.
func (c *Cleaner) follow(ctx context.Context, u *url.URL) (*url.URL, error) {
	if c.redirector == nil {
		log.Debugf("No redirector configured, not resolving %v", redact(u.String()))
		return nil, nil
	}
	hop, err := c.redirector.Hop(ctx, u)
	if err != nil {
		return nil, &RedirectError{URL: u.String(), Err: fmt.Errorf("%w: %w", ErrRedirectFailed, err)}
	}
	if hop.StatusCode < 300 || hop.StatusCode > 399 || hop.Location == "" {
		log.Debugf("No redirect for %v (status %d)", redact(u.String()), hop.StatusCode)
		return nil, nil
	}
	next, err := u.Parse(hop.Location)
	if err != nil {
		return nil, &RedirectError{URL: u.String(), Err: fmt.Errorf("%w: %q: %w", ErrBadLocation, hop.Location, err)}
	}
	if next.Host == "" {
		return nil, &RedirectError{URL: u.String(), Err: fmt.Errorf("%w: %q has no host", ErrBadLocation, hop.Location)}
	}
	log.Debugf("Redirected %v to %v", redact(u.String()), redact(next.String()))
	return next, nil
}

func parseCandidate(text string) (*url.URL, bool) {
	u, err := url.Parse(text)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

// redact hides candidate text from logs unless tracing is on; it often comes
// straight from a user's clipboard.
func redact(s string) string {
	if log.IsTraceEnabled() {
		return s
	}
	return "[redacted]"
}
