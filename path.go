package cleanurl

import (
	"net/url"
	"strings"
)

// RequestsRedirect reports whether one of the URL's path segments is a path
// matcher asking for a redirect. Segments are compared in their escaped form
// and the scan stops at the first hit.
func (m *Matcher) RequestsRedirect(u *url.URL) bool {
	if len(m.PathMatchers) == 0 || u.Opaque != "" {
		return false
	}
	for _, segment := range pathSegments(u) {
		for _, pm := range m.PathMatchers {
			if segment == pm.Name && pm.Operation.Kind() == OpRequestRedirect {
				return true
			}
		}
	}
	return false
}

func pathSegments(u *url.URL) []string {
	p := strings.TrimPrefix(u.EscapedPath(), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
