package cleanurl

import (
	"fmt"
	"strings"
)

// GlobalMatcher is the name of the matcher that applies to every host. It is
// always the first matcher of a RuleSet.
const GlobalMatcher = "global"

// OperationKind identifies which variant an Operation holds.
type OperationKind uint8

const (
	// OpDrop removes the matched parameter.
	OpDrop OperationKind = iota
	// OpReplaceWith substitutes the matched parameter's value.
	OpReplaceWith
	// OpRequestRedirect asks for the URL's redirect to be resolved before any
	// further cleaning.
	OpRequestRedirect
)

// Operation is what happens to a matched parameter or path segment. The zero
// value is Drop.
type Operation struct {
	kind  OperationKind
	value string
}

// Drop returns the operation that removes a matched parameter.
func Drop() Operation { return Operation{kind: OpDrop} }

// ReplaceWith returns the operation that overwrites a matched parameter's
// value with v.
func ReplaceWith(v string) Operation { return Operation{kind: OpReplaceWith, value: v} }

// RequestRedirect returns the operation that signals a redirect must be
// resolved first.
func RequestRedirect() Operation { return Operation{kind: OpRequestRedirect} }

// Kind reports the variant of the operation.
func (o Operation) Kind() OperationKind { return o.kind }

// Value is the replacement text of a ReplaceWith operation, empty otherwise.
func (o Operation) Value() string { return o.value }

func (o Operation) String() string {
	switch o.kind {
	case OpReplaceWith:
		return fmt.Sprintf("%s(%q)", opReplaceWith, o.value)
	case OpRequestRedirect:
		return opRequestRedirect
	default:
		return opDrop
	}
}

// Param is a rule keyed on a query parameter name. The name may carry a single
// leading or trailing '*' wildcard.
type Param struct {
	Name      string
	Operation Operation
}

// matchesKey reports whether the param rule applies to the query key.
func (p Param) matchesKey(key string) bool {
	if needle, ok := strings.CutSuffix(p.Name, "*"); ok {
		return strings.HasPrefix(key, needle)
	}
	if needle, ok := strings.CutPrefix(p.Name, "*"); ok {
		return strings.HasSuffix(key, needle)
	}
	return key == p.Name
}

// PathComponent is a rule keyed on a literal path segment. Only
// RequestRedirect has an effect on path segments.
type PathComponent struct {
	Name      string
	Operation Operation
}

// Matcher is a named bundle of parameter and path rules scoped to a set of
// hosts.
type Matcher struct {
	Name               string
	Hosts              []string
	TerminatesMatching bool
	ParamMatchers      []Param
	PathMatchers       []PathComponent
}

// IsGlobal reports whether the matcher applies to every host.
func (m *Matcher) IsGlobal() bool {
	return m.Name == GlobalMatcher
}

func (m *Matcher) clone() Matcher {
	c := *m
	c.Hosts = append([]string(nil), m.Hosts...)
	c.ParamMatchers = append([]Param(nil), m.ParamMatchers...)
	c.PathMatchers = append([]PathComponent(nil), m.PathMatchers...)
	return c
}

// RuleSet is an ordered, immutable collection of matchers. The global matcher,
// if any, is always first. A RuleSet is safe for concurrent use.
type RuleSet struct {
	matchers []Matcher
	index    *hostIndex
}

// NewRuleSet validates the given matchers and builds a RuleSet from copies of
// them. A matcher named "global" is moved to the front; every other matcher
// keeps its relative order.
func NewRuleSet(matchers ...Matcher) (*RuleSet, error) {
	ordered := make([]Matcher, 0, len(matchers))
	seen := make(map[string]bool, len(matchers))
	for _, m := range matchers {
		if err := Vet(m); err != nil {
			return nil, err
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("%w: duplicate matcher %q", ErrInvalidDefinition, m.Name)
		}
		seen[m.Name] = true
		c := m.clone()
		for i := range c.Hosts {
			c.Hosts[i] = strings.ToLower(c.Hosts[i])
		}
		if c.IsGlobal() {
			ordered = append([]Matcher{c}, ordered...)
		} else {
			ordered = append(ordered, c)
		}
	}
	return &RuleSet{matchers: ordered, index: newHostIndex(ordered)}, nil
}

// Len returns the number of matchers in the set.
func (rs *RuleSet) Len() int {
	return len(rs.matchers)
}

// Matchers returns a copy of the matchers in evaluation order.
func (rs *RuleSet) Matchers() []Matcher {
	out := make([]Matcher, len(rs.matchers))
	for i := range rs.matchers {
		out[i] = rs.matchers[i].clone()
	}
	return out
}

// Lookup returns a copy of the named matcher.
func (rs *RuleSet) Lookup(name string) (Matcher, bool) {
	for i := range rs.matchers {
		if rs.matchers[i].Name == name {
			return rs.matchers[i].clone(), true
		}
	}
	return Matcher{}, false
}
