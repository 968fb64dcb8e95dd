package cleanurl

import (
	"net/url"
	"strings"
)

// Action tells the resolution loop what to do after a matcher ran.
type Action uint8

const (
	// Continue moves on to the next matcher.
	Continue Action = iota
	// Stop ends matching for this URL.
	Stop
	// Redirect asks for the URL's redirect to be resolved.
	Redirect
)

func (a Action) String() string {
	switch a {
	case Stop:
		return "stop"
	case Redirect:
		return "redirect"
	default:
		return "continue"
	}
}

// Outcome is the result of applying a matcher's parameter rules to a URL.
type Outcome struct {
	Action Action
	// Modified reports whether a query pair was removed or had its value
	// changed. It is always false for Redirect.
	Modified bool
}

type queryPair struct {
	key   string
	value string
}

// Rewrite applies the matcher's parameter rules to the URL's query string.
// Pair order and duplicate keys are preserved. The URL is only written to when
// a pair actually changed, and never when a rule requests a redirect.
func (m *Matcher) Rewrite(u *url.URL) Outcome {
	pairs := parseQuery(u.RawQuery)
	hadQuery := u.RawQuery != "" || u.ForceQuery

	modified := false
	for _, param := range m.ParamMatchers {
		kept := pairs[:0:0]
		for i, pair := range pairs {
			if !param.matchesKey(pair.key) {
				kept = append(kept, pair)
				continue
			}
			switch param.Operation.Kind() {
			case OpRequestRedirect:
				log.Debugf("%v: parameter %q requests a redirect", m.Name, pair.key)
				return Outcome{Action: Redirect}
			case OpReplaceWith:
				if pair.value != param.Operation.Value() {
					pair.value = param.Operation.Value()
					modified = true
				}
				kept = append(kept, pair)
			default:
				log.Tracef("%v: dropping parameter %d %q", m.Name, i, pair.key)
				modified = true
			}
		}
		pairs = kept
	}

	if modified {
		if len(pairs) == 0 && hadQuery {
			u.RawQuery = ""
			u.ForceQuery = false
		} else {
			u.RawQuery = encodeQuery(pairs)
		}
	}

	if m.TerminatesMatching {
		return Outcome{Action: Stop, Modified: modified}
	}
	return Outcome{Action: Continue, Modified: modified}
}

// parseQuery splits a raw query into ordered pairs the way HTML forms encode
// them. Empty pieces are skipped and undecodable text is kept verbatim.
func parseQuery(raw string) []queryPair {
	if raw == "" {
		return nil
	}
	pieces := strings.Split(raw, "&")
	pairs := make([]queryPair, 0, len(pieces))
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		key, value, _ := strings.Cut(piece, "=")
		pairs = append(pairs, queryPair{key: unescape(key), value: unescape(value)})
	}
	return pairs
}

func unescape(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func encodeQuery(pairs []queryPair) string {
	var b strings.Builder
	for i, pair := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(pair.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.value))
	}
	return b.String()
}
