package cleanurl

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDefinition indicates a matcher definition that does not
	// conform to the rule schema.
	ErrInvalidDefinition = errors.New("invalid matcher definition")
	// ErrRedirectFailed indicates the redirect request itself failed.
	ErrRedirectFailed = errors.New("redirect request failed")
	// ErrBadLocation indicates a redirect response whose location is not a
	// usable URL.
	ErrBadLocation = errors.New("unusable redirect location")
)

// RuleLoadError reports a definition file that could not be read or decoded.
type RuleLoadError struct {
	Path string
	Err  error
}

func (e *RuleLoadError) Error() string {
	return fmt.Sprintf("loading matcher %s: %v", e.Path, e.Err)
}

func (e *RuleLoadError) Unwrap() error { return e.Err }

// RedirectError reports a redirect that a rule asked for but that could not be
// resolved.
type RedirectError struct {
	URL string
	Err error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("resolving redirect for %s: %v", e.URL, e.Err)
}

func (e *RedirectError) Unwrap() error { return e.Err }
