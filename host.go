package cleanurl

import (
	"slices"
	"strings"

	"github.com/armon/go-radix"
)

const wildcardLabel = "*."

// HandlesHost reports whether the matcher applies to host. The global matcher
// handles every host. A "*.example.com" pattern matches example.com and any
// subdomain of it, but never notexample.com.
func (m *Matcher) HandlesHost(host string) bool {
	if m.IsGlobal() {
		return true
	}
	host = strings.ToLower(host)
	for _, pattern := range m.Hosts {
		pattern = strings.ToLower(pattern)
		if suffix, ok := strings.CutPrefix(pattern, wildcardLabel); ok {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return true
			}
		} else if host == pattern {
			return true
		}
	}
	return false
}

// hostIndex preselects the matchers of a rule set that handle a host. Literal
// hosts live in a map, wildcard suffixes in a radix tree keyed by the reversed
// suffix followed by a dot, so walking the reversed host (plus a dot) only
// visits suffixes that end on a label boundary.
type hostIndex struct {
	global   []int
	literal  map[string][]int
	wildcard *radix.Tree
}

func newHostIndex(matchers []Matcher) *hostIndex {
	idx := &hostIndex{
		literal:  make(map[string][]int),
		wildcard: radix.New(),
	}
	for i := range matchers {
		m := &matchers[i]
		if m.IsGlobal() {
			idx.global = append(idx.global, i)
			continue
		}
		for _, pattern := range m.Hosts {
			pattern = strings.ToLower(pattern)
			if suffix, ok := strings.CutPrefix(pattern, wildcardLabel); ok {
				key := reverse(suffix) + "."
				var ids []int
				if v, found := idx.wildcard.Get(key); found {
					ids = v.([]int)
				}
				idx.wildcard.Insert(key, appendIndex(ids, i))
			} else {
				idx.literal[pattern] = appendIndex(idx.literal[pattern], i)
			}
		}
	}
	return idx
}

// candidates returns the indexes of the matchers handling host, in rule set
// order.
func (idx *hostIndex) candidates(host string) []int {
	host = strings.ToLower(host)
	out := make([]int, 0, len(idx.global)+2)
	out = append(out, idx.global...)
	out = append(out, idx.literal[host]...)
	idx.wildcard.WalkPath(reverse(host)+".", func(_ string, v interface{}) bool {
		out = append(out, v.([]int)...)
		return false
	})
	slices.Sort(out)
	return slices.Compact(out)
}

// appendIndex appends i unless it is already the last element. Indexes are
// added in increasing order so this is enough to keep them unique.
func appendIndex(ids []int, i int) []int {
	if n := len(ids); n > 0 && ids[n-1] == i {
		return ids
	}
	return append(ids, i)
}

func reverse(input string) string {
	runes := []rune(input)
	n := len(runes)
	for i := 0; i < n/2; i++ {
		runes[i], runes[n-1-i] = runes[n-1-i], runes[i]
	}
	return string(runes)
}
